package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	Initialization(summary InitializationSummary)
	StageProgress(update StageProgress)
	ScenesReady(summary SceneSummary)
	SearchConfig(summary SearchConfigSummary)
	SearchStarted(totalScenes int)
	TrialComplete(summary TrialSummary)
	SceneComplete(outcome SceneOutcome)
	SearchProgress(progress ProgressSnapshot)
	SearchComplete(outcome SearchOutcome)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchStarted(info BatchStartInfo)
	FileProgress(context FileProgressContext)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)             {}
func (NullReporter) Initialization(InitializationSummary) {}
func (NullReporter) StageProgress(StageProgress)          {}
func (NullReporter) ScenesReady(SceneSummary)             {}
func (NullReporter) SearchConfig(SearchConfigSummary)     {}
func (NullReporter) SearchStarted(int)                    {}
func (NullReporter) TrialComplete(TrialSummary)           {}
func (NullReporter) SceneComplete(SceneOutcome)           {}
func (NullReporter) SearchProgress(ProgressSnapshot)      {}
func (NullReporter) SearchComplete(SearchOutcome)         {}
func (NullReporter) Warning(string)                       {}
func (NullReporter) Error(ReporterError)                  {}
func (NullReporter) OperationComplete(string)             {}
func (NullReporter) BatchStarted(BatchStartInfo)          {}
func (NullReporter) FileProgress(FileProgressContext)     {}
func (NullReporter) BatchComplete(BatchSummary)           {}
func (NullReporter) Verbose(string)                       {}
