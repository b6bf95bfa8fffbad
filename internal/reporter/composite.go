package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter. Nil reporters are skipped.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	c := &CompositeReporter{}
	for _, r := range reporters {
		if r != nil {
			c.reporters = append(c.reporters, r)
		}
	}
	return c
}

func (c *CompositeReporter) Hardware(summary HardwareSummary) {
	for _, r := range c.reporters {
		r.Hardware(summary)
	}
}

func (c *CompositeReporter) Initialization(summary InitializationSummary) {
	for _, r := range c.reporters {
		r.Initialization(summary)
	}
}

func (c *CompositeReporter) StageProgress(update StageProgress) {
	for _, r := range c.reporters {
		r.StageProgress(update)
	}
}

func (c *CompositeReporter) ScenesReady(summary SceneSummary) {
	for _, r := range c.reporters {
		r.ScenesReady(summary)
	}
}

func (c *CompositeReporter) SearchConfig(summary SearchConfigSummary) {
	for _, r := range c.reporters {
		r.SearchConfig(summary)
	}
}

func (c *CompositeReporter) SearchStarted(totalScenes int) {
	for _, r := range c.reporters {
		r.SearchStarted(totalScenes)
	}
}

func (c *CompositeReporter) TrialComplete(summary TrialSummary) {
	for _, r := range c.reporters {
		r.TrialComplete(summary)
	}
}

func (c *CompositeReporter) SceneComplete(outcome SceneOutcome) {
	for _, r := range c.reporters {
		r.SceneComplete(outcome)
	}
}

func (c *CompositeReporter) SearchProgress(progress ProgressSnapshot) {
	for _, r := range c.reporters {
		r.SearchProgress(progress)
	}
}

func (c *CompositeReporter) SearchComplete(outcome SearchOutcome) {
	for _, r := range c.reporters {
		r.SearchComplete(outcome)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) FileProgress(context FileProgressContext) {
	for _, r := range c.reporters {
		r.FileProgress(context)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
