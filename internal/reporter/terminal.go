package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/five82/crfboost/internal/util"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	out        io.Writer
	errOut     io.Writer
	verbose    bool
	mu         sync.Mutex
	progress   *progressbar.ProgressBar
	maxPercent float32
	lastStage  string
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
	faint      *color.Color
}

// NewTerminalReporter creates a terminal reporter writing to stdout and stderr.
func NewTerminalReporter(verbose bool) *TerminalReporter {
	return NewTerminalReporterWithWriters(os.Stdout, os.Stderr, verbose)
}

// NewTerminalReporterWithWriters creates a terminal reporter with custom writers.
func NewTerminalReporterWithWriters(out, errOut io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
	r.maxPercent = 0
}

func (r *TerminalReporter) section(title string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, title)
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to keep columns aligned.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) Hardware(summary HardwareSummary) {
	r.section("HARDWARE")
	r.printLabel(10, "Hostname:", summary.Hostname)
	r.printLabel(10, "Cores:", fmt.Sprintf("%d logical, %d physical", summary.LogicalCores, summary.PhysicalCores))
}

func (r *TerminalReporter) Initialization(summary InitializationSummary) {
	r.section("VIDEO")
	r.printLabel(10, "File:", summary.InputFile)
	r.printLabel(10, "Zones:", summary.OutputFile)
	r.printLabel(10, "Duration:", summary.Duration)
	r.printLabel(10, "Frames:", fmt.Sprintf("%d at %.3f fps", summary.Frames, summary.FPS))
	r.printLabel(10, "Resolution:", summary.Resolution)
	if summary.DynamicRange != "" {
		r.printLabel(10, "Dynamic:", summary.DynamicRange)
	}
	if r.verbose && summary.RunID != "" {
		r.printLabel(10, "Run:", r.faint.Sprint(summary.RunID))
	}
}

func (r *TerminalReporter) StageProgress(update StageProgress) {
	r.mu.Lock()
	newStage := r.lastStage != update.Stage
	r.lastStage = update.Stage
	r.mu.Unlock()

	if newStage {
		r.section(strings.ToUpper(update.Stage))
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.magenta.Sprint("›"), update.Message)
}

func (r *TerminalReporter) ScenesReady(summary SceneSummary) {
	r.section("SCENES")
	const w = 9
	r.printLabel(w, "Source:", cases.Title(language.Und).String(summary.Source))
	r.printLabel(w, "Cuts:", fmt.Sprintf("%d detected -> %d scenes", summary.RawCuts, summary.Scenes))
	r.printLabel(w, "Limits:", fmt.Sprintf("min %d, split %d frames", summary.MinLen, summary.MaxLen))
	r.printLabel(w, "Lengths:", fmt.Sprintf("%d..%d frames", summary.ShortestLen, summary.LongestLen))
	if summary.SceneFile != "" {
		r.printLabel(w, "Saved:", summary.SceneFile)
	}
}

func (r *TerminalReporter) SearchConfig(summary SearchConfigSummary) {
	r.section("SEARCH")
	const w = 13
	r.printLabel(w, "Target:", fmt.Sprintf("%.2f (%s)", summary.Target, summary.Aggregation))
	r.printLabel(w, "CRFs:", summary.CRFs)
	r.printLabel(w, "Samples:", fmt.Sprintf("%d frames, %s", summary.SampleFrames, summary.Distribution))
	filter := r.faint.Sprint("off")
	if summary.FilterFrames {
		filter = r.green.Sprint("on")
	}
	r.printLabel(w, "Filter:", filter)
	r.printLabel(w, "Workers:", fmt.Sprintf("%d", summary.Workers))
	r.printLabel(w, "Source:", summary.Source)
	r.printLabel(w, "Cache:", summary.Cache)
	if summary.EncoderParams != "" {
		r.printLabel(w, "SVT params:", summary.EncoderParams)
	}
}

func (r *TerminalReporter) SearchStarted(totalScenes int) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress = progressbar.NewOptions64(
		100,
		progressbar.OptionSetDescription(fmt.Sprintf("0/%d scenes", totalScenes)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Searching [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) TrialComplete(summary TrialSummary) {
	if !r.verbose {
		return
	}
	status := r.red.Sprint("below")
	if summary.Passed {
		status = r.green.Sprint("pass")
	}
	cached := ""
	if summary.Cached {
		cached = r.faint.Sprint(" (cached)")
	}
	r.printAboveBar(fmt.Sprintf("  scene %d crf %d: %.2f over %d frames %s%s",
		summary.SceneID, summary.CRF, summary.Score, summary.Frames, status, cached))
}

func (r *TerminalReporter) SceneComplete(outcome SceneOutcome) {
	switch {
	case outcome.Failed:
		r.printAboveBar(fmt.Sprintf("  %s scene %d failed, using CRF %d: %s",
			r.red.Sprint("✗"), outcome.SceneID, outcome.CRF, outcome.Error))
	case r.verbose:
		mark := r.green.Sprint("✓")
		if !outcome.MetTarget {
			mark = r.yellow.Sprint("!")
		}
		r.printAboveBar(fmt.Sprintf("  %s scene %d -> CRF %d (%.2f, %d trials)",
			mark, outcome.SceneID, outcome.CRF, outcome.Score, outcome.Trials))
	}
}

// printAboveBar writes a line without corrupting an active progress bar.
func (r *TerminalReporter) printAboveBar(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Clear()
	}
	_, _ = fmt.Fprintln(r.out, line)
}

func (r *TerminalReporter) SearchProgress(progress ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		return
	}

	clamped := min(max(progress.Percent, 0), 100)
	if clamped >= r.maxPercent {
		r.maxPercent = clamped
		_ = r.progress.Set64(int64(clamped))
	}

	r.progress.Describe(fmt.Sprintf("%d/%d scenes, %d trials (%d cached), eta %s",
		progress.ScenesComplete, progress.ScenesTotal, progress.TrialsRun, progress.TrialsCached,
		util.FormatElapsed(progress.ETA)))
}

func (r *TerminalReporter) SearchComplete(outcome SearchOutcome) {
	r.finishProgress()

	r.section("RESULTS")
	if r.verbose && len(outcome.Scenes) > 0 {
		_, _ = fmt.Fprintln(r.out, sceneTable(outcome.Scenes))
	}

	total := outcome.Met + outcome.Missed + outcome.Failed
	const w = 13
	r.printLabel(w, "Scenes:", fmt.Sprintf("%d total, %s met, %s missed, %s failed",
		total,
		r.green.Sprint(outcome.Met),
		r.yellow.Sprint(outcome.Missed),
		r.red.Sprint(outcome.Failed)))
	r.printLabel(w, "Trials:", fmt.Sprintf("%d run, %d cached", outcome.TrialsRun, outcome.TrialsCached))
	r.printLabel(w, "Mean score:", fmt.Sprintf("%.2f (target %.2f)", outcome.MeanScore, outcome.Target))

	shares := make([]string, 0, len(outcome.Distribution))
	for _, s := range outcome.Distribution {
		shares = append(shares, fmt.Sprintf("%d: %.1f%%", s.CRF, s.Percent))
	}
	r.printLabel(w, "CRF shares:", strings.Join(shares, ", "))
	r.printLabel(w, "Time:", util.FormatElapsed(outcome.TotalTime))
	if outcome.DataFile != "" {
		r.printLabel(w, "CRF data:", outcome.DataFile)
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(outcome.OutputFile))
}

func (r *TerminalReporter) Warning(message string) {
	r.printAboveBar("")
	_, _ = r.yellow.Fprintf(r.out, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()
	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	r.section("BATCH")
	_, _ = fmt.Fprintf(r.out, "  Processing %d files -> %s\n", info.TotalFiles, r.bold.Sprint(info.OutputDir))
	for i, name := range info.FileList {
		_, _ = fmt.Fprintf(r.out, "  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) FileProgress(context FileProgressContext) {
	_, _ = fmt.Fprintf(r.out, "\nFile %s of %d\n", r.bold.Sprint(context.CurrentFile), context.TotalFiles)
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	r.section("BATCH SUMMARY")
	_, _ = fmt.Fprintf(r.out, "  %s\n", r.bold.Sprintf("%d of %d succeeded", summary.SuccessfulCount, summary.TotalFiles))
	_, _ = fmt.Fprintf(r.out, "  Time: %s\n", util.FormatElapsed(summary.TotalDuration))

	for _, result := range summary.FileResults {
		if result.Err != "" {
			_, _ = fmt.Fprintf(r.out, "  - %s %s\n", result.Filename, r.red.Sprint(result.Err))
			continue
		}
		_, _ = fmt.Fprintf(r.out, "  - %s (%d scenes, %d missed, %d failed)\n",
			result.Filename, result.Scenes, result.Missed, result.Failed)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	r.printAboveBar(message)
}
