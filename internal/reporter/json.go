package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events, one object per line.
type JSONReporter struct {
	writer             io.Writer
	runID              string
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter(runID string) *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout, runID)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer, runID string) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		runID:              runID,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v map[string]interface{}) {
	if r.runID != "" {
		v["run_id"] = r.runID
	}
	v["timestamp"] = r.timestamp()

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write(map[string]interface{}{
		"type":           "hardware",
		"hostname":       summary.Hostname,
		"logical_cores":  summary.LogicalCores,
		"physical_cores": summary.PhysicalCores,
	})
}

func (r *JSONReporter) Initialization(summary InitializationSummary) {
	r.write(map[string]interface{}{
		"type":          "initialization",
		"input_file":    summary.InputFile,
		"output_file":   summary.OutputFile,
		"frames":        summary.Frames,
		"fps":           summary.FPS,
		"duration":      summary.Duration,
		"resolution":    summary.Resolution,
		"dynamic_range": summary.DynamicRange,
	})
}

func (r *JSONReporter) StageProgress(update StageProgress) {
	event := map[string]interface{}{
		"type":    "stage_progress",
		"stage":   update.Stage,
		"percent": update.Percent,
		"message": update.Message,
	}
	if update.ETA != nil {
		event["eta_seconds"] = int64(update.ETA.Seconds())
	}
	r.write(event)
}

func (r *JSONReporter) ScenesReady(summary SceneSummary) {
	r.write(map[string]interface{}{
		"type":         "scenes_ready",
		"source":       summary.Source,
		"raw_cuts":     summary.RawCuts,
		"scenes":       summary.Scenes,
		"min_len":      summary.MinLen,
		"max_len":      summary.MaxLen,
		"shortest_len": summary.ShortestLen,
		"longest_len":  summary.LongestLen,
		"scene_file":   summary.SceneFile,
	})
}

func (r *JSONReporter) SearchConfig(summary SearchConfigSummary) {
	r.write(map[string]interface{}{
		"type":           "search_config",
		"target":         summary.Target,
		"crfs":           summary.CRFs,
		"aggregation":    summary.Aggregation,
		"sample_frames":  summary.SampleFrames,
		"distribution":   summary.Distribution,
		"filter_frames":  summary.FilterFrames,
		"workers":        summary.Workers,
		"source":         summary.Source,
		"encoder_params": summary.EncoderParams,
		"cache":          summary.Cache,
	})
}

func (r *JSONReporter) SearchStarted(totalScenes int) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":         "search_started",
		"total_scenes": totalScenes,
	})
}

func (r *JSONReporter) TrialComplete(summary TrialSummary) {
	r.write(map[string]interface{}{
		"type":     "trial_complete",
		"scene_id": summary.SceneID,
		"crf":      summary.CRF,
		"score":    summary.Score,
		"frames":   summary.Frames,
		"cached":   summary.Cached,
		"passed":   summary.Passed,
	})
}

func sceneEvent(s SceneOutcome) map[string]interface{} {
	event := map[string]interface{}{
		"scene_id":    s.SceneID,
		"start_frame": s.StartFrame,
		"end_frame":   s.EndFrame,
		"crf":         s.CRF,
		"score":       s.Score,
		"met_target":  s.MetTarget,
		"failed":      s.Failed,
		"trials":      s.Trials,
	}
	if s.Error != "" {
		event["error"] = s.Error
	}
	return event
}

func (r *JSONReporter) SceneComplete(outcome SceneOutcome) {
	event := sceneEvent(outcome)
	event["type"] = "scene_complete"
	r.write(event)
}

func (r *JSONReporter) SearchProgress(progress ProgressSnapshot) {
	const progressBucketSize = 1
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":            "search_progress",
		"stage":           "search",
		"scenes_complete": progress.ScenesComplete,
		"scenes_total":    progress.ScenesTotal,
		"trials_run":      progress.TrialsRun,
		"trials_cached":   progress.TrialsCached,
		"percent":         progress.Percent,
		"elapsed_seconds": int64(progress.Elapsed.Seconds()),
		"eta_seconds":     int64(progress.ETA.Seconds()),
	})
}

func (r *JSONReporter) SearchComplete(outcome SearchOutcome) {
	scenes := make([]map[string]interface{}, len(outcome.Scenes))
	for i, s := range outcome.Scenes {
		scenes[i] = sceneEvent(s)
	}
	distribution := make([]map[string]interface{}, len(outcome.Distribution))
	for i, d := range outcome.Distribution {
		distribution[i] = map[string]interface{}{"crf": d.CRF, "percent": d.Percent}
	}

	r.write(map[string]interface{}{
		"type":             "search_complete",
		"input_file":       outcome.InputFile,
		"output_file":      outcome.OutputFile,
		"data_file":        outcome.DataFile,
		"target":           outcome.Target,
		"scenes":           scenes,
		"met":              outcome.Met,
		"missed":           outcome.Missed,
		"failed":           outcome.Failed,
		"trials_run":       outcome.TrialsRun,
		"trials_cached":    outcome.TrialsCached,
		"distribution":     distribution,
		"mean_score":       outcome.MeanScore,
		"duration_seconds": int64(outcome.TotalTime.Seconds()),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":    "warning",
		"message": message,
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":    "operation_complete",
		"message": message,
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]interface{}{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"output_dir":  info.OutputDir,
	})
}

func (r *JSONReporter) FileProgress(context FileProgressContext) {
	r.write(map[string]interface{}{
		"type":         "file_progress",
		"current_file": context.CurrentFile,
		"total_files":  context.TotalFiles,
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	results := make([]map[string]interface{}, len(summary.FileResults))
	for i, fr := range summary.FileResults {
		results[i] = map[string]interface{}{
			"filename": fr.Filename,
			"scenes":   fr.Scenes,
			"missed":   fr.Missed,
			"failed":   fr.Failed,
			"error":    fr.Err,
		}
	}

	r.write(map[string]interface{}{
		"type":                   "batch_complete",
		"successful_count":       summary.SuccessfulCount,
		"total_files":            summary.TotalFiles,
		"total_duration_seconds": int64(summary.TotalDuration.Seconds()),
		"file_results":           results,
	})
}

// Verbose messages are not part of the event stream.
func (r *JSONReporter) Verbose(string) {}
