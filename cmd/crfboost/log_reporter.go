package main

import (
	"github.com/five82/crfboost/internal/logging"
	"github.com/five82/crfboost/internal/reporter"
)

// logReporter mirrors the important events into the run log.
type logReporter struct {
	reporter.NullReporter
	log *logging.RunLog
}

func newLogReporter(l *logging.RunLog) *logReporter {
	return &logReporter{log: l}
}

func (r *logReporter) Initialization(s reporter.InitializationSummary) {
	r.log.Info("Input %s: %d frames at %.3f fps, %s", s.InputFile, s.Frames, s.FPS, s.Resolution)
}

func (r *logReporter) SearchConfig(s reporter.SearchConfigSummary) {
	r.log.Info("Search: target %.2f (%s), CRFs %s, %d frames %s, workers %d, cache %s",
		s.Target, s.Aggregation, s.CRFs, s.SampleFrames, s.Distribution, s.Workers, s.Cache)
}

func (r *logReporter) TrialComplete(s reporter.TrialSummary) {
	r.log.Debug("scene %d crf %d: %.2f over %d frames (cached=%v)", s.SceneID, s.CRF, s.Score, s.Frames, s.Cached)
}

func (r *logReporter) SceneComplete(s reporter.SceneOutcome) {
	if s.Failed {
		r.log.Warn("scene %d failed, fallback CRF %d: %s", s.SceneID, s.CRF, s.Error)
		return
	}
	r.log.Info("scene %d [%d, %d) -> CRF %d, score %.2f, met=%v", s.SceneID, s.StartFrame, s.EndFrame, s.CRF, s.Score, s.MetTarget)
}

func (r *logReporter) SearchComplete(s reporter.SearchOutcome) {
	r.log.Info("Wrote %s: %d met, %d missed, %d failed, %d trials run, %d cached",
		s.OutputFile, s.Met, s.Missed, s.Failed, s.TrialsRun, s.TrialsCached)
}

func (r *logReporter) Warning(message string) {
	r.log.Warn("%s", message)
}

func (r *logReporter) Error(e reporter.ReporterError) {
	r.log.Error("%s: %s", e.Title, e.Message)
}

func (r *logReporter) Verbose(message string) {
	r.log.Debug("%s", message)
}
