// Package report produces the human-readable results of a run: the CRF data
// file, the CRF distribution and score statistics.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/tq"
	"github.com/five82/crfboost/internal/util"
)

// Row is one scene line of the CRF data file.
type Row struct {
	Scene      int
	CRF        int
	StartFrame int
	EndFrame   int
	MeanScore  float64
}

// Share is the percentage of scenes assigned one CRF.
type Share struct {
	CRF     int
	Percent float64
}

// RowsFromDecisions converts scene decisions into data rows. MeanScore is
// the mean of the latest per-frame scores.
func RowsFromDecisions(decisions []tq.Decision) []Row {
	rows := make([]Row, len(decisions))
	for i, d := range decisions {
		scores := slices.Collect(maps.Values(d.FrameScores))
		rows[i] = Row{
			Scene:      i,
			CRF:        d.CRF,
			StartFrame: d.Scene.StartFrame,
			EndFrame:   d.Scene.EndFrame,
			MeanScore:  util.Mean(scores),
		}
	}
	return rows
}

// Distribution returns the share of rows per CRF, highest CRF first.
func Distribution(rows []Row) []Share {
	if len(rows) == 0 {
		return nil
	}
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.CRF]++
	}

	shares := make([]Share, 0, len(counts))
	for crf, n := range counts {
		shares = append(shares, Share{CRF: crf, Percent: float64(n) / float64(len(rows)) * 100})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].CRF > shares[j].CRF })
	return shares
}

// FormatDistribution renders shares as "CRF 30: 50.00%, CRF 24: 50.00%".
func FormatDistribution(shares []Share) string {
	parts := make([]string, len(shares))
	for i, s := range shares {
		parts[i] = fmt.Sprintf("CRF %d: %.2f%%", s.CRF, s.Percent)
	}
	return strings.Join(parts, ", ")
}

// FormatRow renders one data line.
func FormatRow(r Row) string {
	return fmt.Sprintf("scene: %4d, crf: %3d, frame-range: %6d %6d, mean-score: %6.2f",
		r.Scene, r.CRF, r.StartFrame, r.EndFrame, r.MeanScore)
}

// WriteCRFData writes the [INFO] and [DATA] blocks for video.
func WriteCRFData(w io.Writer, video string, rows []Row) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "[INFO]")
	fmt.Fprintf(bw, "Video: %s\n", filepath.Base(video))
	fmt.Fprintf(bw, "Distribution: %s\n\n", FormatDistribution(Distribution(rows)))
	fmt.Fprintln(bw, "[DATA]")
	for _, r := range rows {
		fmt.Fprintln(bw, FormatRow(r))
	}
	return bw.Flush()
}

// WriteCRFDataFile writes the CRF data file atomically.
func WriteCRFDataFile(path, video string, rows []Row) error {
	var buf bytes.Buffer
	if err := WriteCRFData(&buf, video, rows); err != nil {
		return cerrors.NewIOError("format CRF data", err)
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return cerrors.NewIOError("write CRF data file "+path, err)
	}
	return nil
}

// ParseCRFData reads the [DATA] rows of a CRF data file.
func ParseCRFData(r io.Reader) ([]Row, error) {
	var rows []Row
	inData := false

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		switch {
		case text == "[DATA]":
			inData = true
			continue
		case strings.HasPrefix(text, "["):
			inData = false
			continue
		case !inData || text == "":
			continue
		}

		var row Row
		_, err := fmt.Sscanf(text, "scene: %d, crf: %d, frame-range: %d %d, mean-score: %f",
			&row.Scene, &row.CRF, &row.StartFrame, &row.EndFrame, &row.MeanScore)
		if err != nil {
			return nil, cerrors.NewIOError(fmt.Sprintf("CRF data line %d: %q", line, text), err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.NewIOError("read CRF data", err)
	}
	return rows, nil
}
