package reporter

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// sceneTable renders per-scene decisions as a rounded table.
func sceneTable(scenes []SceneOutcome) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Scene", "Frames", "CRF", "Score", "Trials", "Status"})

	for _, s := range scenes {
		tw.AppendRow(table.Row{
			s.SceneID,
			fmt.Sprintf("%d-%d", s.StartFrame, s.EndFrame),
			s.CRF,
			fmt.Sprintf("%.2f", s.Score),
			s.Trials,
			sceneStatus(s),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func sceneStatus(s SceneOutcome) string {
	switch {
	case s.Failed:
		return "failed"
	case s.MetTarget:
		return "met"
	default:
		return "missed"
	}
}
