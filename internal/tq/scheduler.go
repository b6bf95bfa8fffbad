package tq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/five82/crfboost/internal/cache"
	"github.com/five82/crfboost/internal/crf"
	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/ffmpeg"
	"github.com/five82/crfboost/internal/logging"
	"github.com/five82/crfboost/internal/metrics"
	"github.com/five82/crfboost/internal/probe"
	"github.com/five82/crfboost/internal/reporter"
	"github.com/five82/crfboost/internal/scene"
	"github.com/five82/crfboost/internal/worker"
)

// Config controls a search run.
type Config struct {
	Space        crf.Space
	Target       float64
	Aggregation  Aggregation
	FilterFrames bool

	// Workers bounds the number of scenes searched at once.
	Workers int
	// EvaluatorWorkers bounds concurrent evaluator calls across all scenes.
	// Zero means one per scene worker.
	EvaluatorWorkers int

	Video       string
	Fingerprint string // resume cache identity of Video
	Params      ffmpeg.Params
	TempDir     string
	KeepTemp    bool
}

// SceneJob is one scene and the frames sampled from it.
type SceneJob struct {
	Scene  scene.Scene
	Frames []int
}

// Result holds the decisions of a completed run, indexed like the input jobs.
type Result struct {
	Decisions []Decision
	Stats     *RunStats
	Elapsed   time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCache enables the resume cache.
func WithCache(store cache.Store) Option {
	return func(s *Scheduler) { s.store = store }
}

// WithReporter sets the progress reporter.
func WithReporter(rep reporter.Reporter) Option {
	return func(s *Scheduler) {
		if rep != nil {
			s.rep = rep
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// Scheduler runs (scene x candidate) trials. Scenes are searched in parallel;
// the candidates of one scene are tried one at a time, cheapest first, and
// the search stops at the first candidate that meets the target.
type Scheduler struct {
	cfg       Config
	encoder   probe.Encoder
	evaluator probe.Evaluator
	extractor probe.FrameExtractor

	store   cache.Store
	rep     reporter.Reporter
	metrics *metrics.Recorder
	log     *logging.Logger

	evalSem *worker.Semaphore

	mu       sync.Mutex
	progress worker.Progress
	started  time.Time
}

// NewScheduler creates a scheduler around the given collaborators.
func NewScheduler(cfg Config, enc probe.Encoder, eval probe.Evaluator, ext probe.FrameExtractor, opts ...Option) *Scheduler {
	cfg.Workers = max(cfg.Workers, 1)
	if cfg.EvaluatorWorkers <= 0 {
		cfg.EvaluatorWorkers = cfg.Workers
	}
	if cfg.Aggregation.Mode == "" {
		cfg.Aggregation = DefaultAggregation()
	}

	s := &Scheduler{
		cfg:       cfg,
		encoder:   enc,
		evaluator: eval,
		extractor: ext,
		rep:       reporter.NullReporter{},
		log:       logging.NewComponentLogger("tq"),
		evalSem:   worker.NewSemaphore(cfg.EvaluatorWorkers),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run searches every scene and returns one decision per job. Trial failures
// become fallback decisions; any other error or cancellation aborts the run.
func (s *Scheduler) Run(ctx context.Context, jobs []SceneJob) (*Result, error) {
	if s.cfg.Space.Len() == 0 {
		return nil, cerrors.NewConfigError("empty CRF candidate space", crf.ErrInvalidSpec)
	}

	s.started = time.Now()
	s.progress = worker.Progress{ScenesTotal: len(jobs)}
	s.rep.SearchStarted(len(jobs))

	decisions := make([]Decision, len(jobs))
	weighted := make([]worker.Job, len(jobs))
	for i, j := range jobs {
		weighted[i] = worker.Job{ID: i, Weight: j.Scene.Len()}
	}
	dispatcher := worker.NewDispatcher(weighted)
	pool := worker.NewPool(ctx, s.cfg.Workers, s.cfg.Workers)

	for !pool.Stopped() {
		job, ok := dispatcher.Next()
		if !ok {
			break
		}
		idx := job.ID
		submitted := pool.Submit(ctx, func(ctx context.Context) error {
			d, err := s.searchScene(ctx, idx, jobs[idx])
			if err != nil {
				return err
			}
			decisions[idx] = d
			dispatcher.MarkComplete(idx)
			s.sceneDone(d)
			return nil
		})
		if !submitted {
			break
		}
	}

	err := pool.Wait()
	if err == nil && ctx.Err() != nil {
		err = cerrors.NewCancelledError()
	}
	if err == nil && dispatcher.Completed() != len(jobs) {
		err = cerrors.NewCancelledError()
	}
	if err != nil {
		s.log.Warn("search aborted", logging.Err(err),
			"completed", dispatcher.Completed(),
			"dropped", pool.Dropped(),
			"unstarted", dispatcher.Remaining())
		return nil, err
	}

	return &Result{
		Decisions: decisions,
		Stats:     ComputeRunStats(decisions),
		Elapsed:   time.Since(s.started),
	}, nil
}

func (s *Scheduler) searchScene(ctx context.Context, id int, job SceneJob) (Decision, error) {
	s.metrics.SceneStarted()
	log := s.log.With("scene", id, "range", job.Scene.String())

	dir := filepath.Join(s.cfg.TempDir, fmt.Sprintf("scene_%04d", id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Decision{}, cerrors.NewIOError("failed to create scene work directory", err)
	}
	if !s.cfg.KeepTemp {
		defer os.RemoveAll(dir)
	}

	st := NewSceneState(job.Scene, job.Frames, s.cfg.Target)
	t := &trial{
		sceneID:    id,
		job:        job,
		dir:        dir,
		sampleHash: cache.HashFrames(st.Frames),
		paramsHash: cache.HashParams(s.cfg.Params),
	}

	var decision Decision
	decided := false
	for _, c := range s.cfg.Space.Values() {
		if ctx.Err() != nil {
			return Decision{}, cerrors.NewCancelledError()
		}

		active := st.ActiveFrames(s.cfg.FilterFrames)
		scores, cached, err := s.runTrial(ctx, t, c, active)
		if err != nil {
			if ctx.Err() != nil || cerrors.IsCancelled(err) {
				return Decision{}, cerrors.NewCancelledError()
			}
			if !cerrors.IsTrialScoped(err) {
				return Decision{}, err
			}
			s.metrics.TrialDone("failed")
			log.Warn("trial failed, falling back to most expensive CRF", "crf", c, "error", err)
			decision = Fallback(id, s.cfg.Space, s.cfg.Target, st.Candidates, err)
			decided = true
			break
		}

		cs := st.Record(id, c, scores, s.cfg.Aggregation, cached)
		passed := cs.Score >= s.cfg.Target
		s.trialDone(id, cs, passed)
		log.Debug("trial complete", "crf", c, "score", cs.Score, "frames", cs.Evaluated, "cached", cached)

		if passed {
			break
		}
	}

	if !decided {
		decision = Decide(id, s.cfg.Space, s.cfg.Target, st.Candidates)
	}
	decision.Scene = job.Scene
	decision.FrameScores = st.Latest()

	s.metrics.SceneDecided(decision.CRF, decision.MetTarget, decision.Failed)
	log.Info("scene decided", "crf", decision.CRF, "score", decision.Score,
		"met_target", decision.MetTarget, "trials", decision.Trials)
	return decision, nil
}

// trial carries the per-scene values shared by all of a scene's trials.
type trial struct {
	sceneID    int
	job        SceneJob
	dir        string
	sampleHash string
	paramsHash string
	refs       map[int]probe.Frame
}

// runTrial returns the scores of active frames at crf, using the resume cache
// where it already covers them.
func (s *Scheduler) runTrial(ctx context.Context, t *trial, c int, active []int) (map[int]float64, bool, error) {
	key := cache.Key{
		Fingerprint: s.cfg.Fingerprint,
		StartFrame:  t.job.Scene.StartFrame,
		EndFrame:    t.job.Scene.EndFrame,
		CRF:         c,
		SampleHash:  t.sampleHash,
		ParamsHash:  t.paramsHash,
	}

	known := cache.Scores{}
	if s.store != nil {
		got, ok, err := s.store.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("cache lookup failed", "key", key.String(), "error", err)
		case ok:
			known = got
		}
	}
	if len(active) > 0 && known.Covers(active) {
		s.metrics.TrialDone("cache")
		return subset(known, active), true, nil
	}

	missing := make([]int, 0, len(active))
	for _, f := range active {
		if _, ok := known[f]; !ok {
			missing = append(missing, f)
		}
	}

	fresh, err := s.encodeAndScore(ctx, t, c, missing)
	if err != nil {
		return nil, false, err
	}
	for f, score := range fresh {
		known[f] = score
	}

	if s.store != nil && len(fresh) > 0 {
		if err := s.store.Put(ctx, key, known); err != nil {
			s.log.Warn("cache store failed", "key", key.String(), "error", err)
		}
	}
	s.metrics.TrialDone("run")
	return subset(known, active), false, nil
}

func (s *Scheduler) encodeAndScore(ctx context.Context, t *trial, c int, frames []int) (map[int]float64, error) {
	if len(frames) == 0 {
		return map[int]float64{}, nil
	}

	if t.refs == nil {
		refs, err := s.extractor.Extract(ctx, s.cfg.Video, t.job.Frames, filepath.Join(t.dir, "ref"))
		if err != nil {
			return nil, cerrors.NewEvaluateError(fmt.Sprintf("scene %d: failed to extract reference frames", t.sceneID), err)
		}
		t.refs = make(map[int]probe.Frame, len(refs))
		for _, r := range refs {
			t.refs[r.Index] = r
		}
	}

	start := time.Now()
	sample, err := s.encoder.Encode(ctx, probe.EncodeRequest{
		Video:   s.cfg.Video,
		SceneID: t.sceneID,
		Frames:  frames,
		CRF:     c,
		Params:  s.cfg.Params,
		Dir:     t.dir,
	})
	s.metrics.ObserveEncode(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if !s.cfg.KeepTemp {
		defer removeSample(sample)
	}
	if len(sample.Frames) != len(frames) {
		return nil, cerrors.NewEncodeError(
			fmt.Sprintf("scene %d crf %d: encoder returned %d frames, want %d", t.sceneID, c, len(sample.Frames), len(frames)), nil)
	}

	scores := make(map[int]float64, len(frames))
	for i, f := range frames {
		ref, ok := t.refs[f]
		if !ok {
			return nil, cerrors.NewEvaluateError(fmt.Sprintf("scene %d: no reference for frame %d", t.sceneID, f), nil)
		}
		score, err := s.score(ctx, ref, sample.Frames[i])
		if err != nil {
			return nil, err
		}
		scores[f] = score
	}
	return scores, nil
}

func (s *Scheduler) score(ctx context.Context, ref, dist probe.Frame) (float64, error) {
	if err := s.evalSem.Acquire(ctx); err != nil {
		return 0, cerrors.NewCancelledError()
	}
	defer s.evalSem.Release()

	start := time.Now()
	score, err := s.evaluator.Score(ctx, ref, dist)
	s.metrics.ObserveEvaluate(time.Since(start), err)
	return score, err
}

func (s *Scheduler) trialDone(id int, cs CandidateScore, passed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs.Cached {
		s.progress.TrialsCached++
	} else {
		s.progress.TrialsRun++
		s.progress.FramesScored += cs.Evaluated
	}

	s.rep.TrialComplete(reporter.TrialSummary{
		SceneID: id,
		CRF:     cs.CRF,
		Score:   cs.Score,
		Frames:  cs.Evaluated,
		Cached:  cs.Cached,
		Passed:  passed,
	})
}

// sceneDone reports under s.mu so progress snapshots arrive in order.
func (s *Scheduler) sceneDone(d Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.ScenesComplete++
	p := s.progress

	s.rep.SceneComplete(Outcome(d))

	elapsed := time.Since(s.started)
	var eta time.Duration
	if p.ScenesComplete > 0 && p.ScenesComplete < p.ScenesTotal {
		perScene := elapsed / time.Duration(p.ScenesComplete)
		eta = perScene * time.Duration(p.ScenesTotal-p.ScenesComplete)
	}
	s.rep.SearchProgress(reporter.ProgressSnapshot{
		ScenesComplete: p.ScenesComplete,
		ScenesTotal:    p.ScenesTotal,
		TrialsRun:      p.TrialsRun,
		TrialsCached:   p.TrialsCached,
		Percent:        float32(p.Percent()),
		Elapsed:        elapsed,
		ETA:            eta,
	})
}

// Outcome converts a decision into its reporter form.
func Outcome(d Decision) reporter.SceneOutcome {
	return reporter.SceneOutcome{
		SceneID:    d.SceneID,
		StartFrame: d.Scene.StartFrame,
		EndFrame:   d.Scene.EndFrame,
		CRF:        d.CRF,
		Score:      d.Score,
		MetTarget:  d.MetTarget,
		Failed:     d.Failed,
		Error:      d.Err,
		Trials:     d.Trials,
	}
}

func subset(scores cache.Scores, frames []int) map[int]float64 {
	out := make(map[int]float64, len(frames))
	for _, f := range frames {
		if v, ok := scores[f]; ok {
			out[f] = v
		}
	}
	return out
}

func removeSample(sample *probe.Sample) {
	if sample == nil {
		return
	}
	paths := make([]string, 0, len(sample.Frames)+1)
	if sample.Path != "" {
		paths = append(paths, sample.Path)
	}
	for _, f := range sample.Frames {
		paths = append(paths, f.Path)
	}
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
