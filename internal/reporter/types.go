// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// HardwareSummary contains hardware information.
type HardwareSummary struct {
	Hostname      string
	LogicalCores  int
	PhysicalCores int
}

// InitializationSummary describes the current file before searching.
type InitializationSummary struct {
	RunID        string
	InputFile    string
	OutputFile   string
	Frames       int
	FPS          float64
	Duration     string
	Resolution   string
	DynamicRange string
}

// SceneSummary describes the normalized scene partition.
type SceneSummary struct {
	Source      string // "scene file" or detector name
	RawCuts     int
	Scenes      int
	MinLen      int
	MaxLen      int
	ShortestLen int
	LongestLen  int
	SceneFile   string
}

// SearchConfigSummary describes how scenes will be searched.
type SearchConfigSummary struct {
	Target        float64
	CRFs          string
	Aggregation   string
	SampleFrames  int
	Distribution  string
	FilterFrames  bool
	Workers       int
	Source        string
	EncoderParams string
	Cache         string
}

// TrialSummary reports one finished (scene, CRF) trial.
type TrialSummary struct {
	SceneID int
	CRF     int
	Score   float64
	Frames  int
	Cached  bool
	Passed  bool
}

// SceneOutcome reports the final decision for one scene.
type SceneOutcome struct {
	SceneID    int
	StartFrame int
	EndFrame   int
	CRF        int
	Score      float64
	MetTarget  bool
	Failed     bool
	Error      string
	Trials     int
}

// ProgressSnapshot contains search progress information.
type ProgressSnapshot struct {
	ScenesComplete int
	ScenesTotal    int
	TrialsRun      int
	TrialsCached   int
	Percent        float32
	Elapsed        time.Duration
	ETA            time.Duration
}

// CRFShare is the share of scenes assigned one CRF.
type CRFShare struct {
	CRF     int
	Percent float64
}

// SearchOutcome contains final search results for one video.
type SearchOutcome struct {
	InputFile    string
	OutputFile   string
	DataFile     string
	Target       float64
	Scenes       []SceneOutcome
	Met          int
	Missed       int
	Failed       int
	TrialsRun    int
	TrialsCached int
	Distribution []CRFShare
	MeanScore    float64
	TotalTime    time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	OutputDir  string
}

// FileProgressContext contains current file index within a batch.
type FileProgressContext struct {
	CurrentFile int
	TotalFiles  int
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	SuccessfulCount int
	TotalFiles      int
	TotalDuration   time.Duration
	FileResults     []FileResult
}

// FileResult contains the per-file search result.
type FileResult struct {
	Filename string
	Scenes   int
	Missed   int
	Failed   int
	Err      string
}

// StageProgress represents a generic stage update.
type StageProgress struct {
	Stage   string
	Percent float32
	Message string
	ETA     *time.Duration
}
