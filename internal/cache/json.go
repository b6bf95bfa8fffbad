package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/gofrs/flock"

	cerrors "github.com/five82/crfboost/internal/errors"
	"github.com/five82/crfboost/internal/util"
)

var metricsFileRegex = regexp.MustCompile(`^metrics_(\d+)\.json$`)

// jsonFile is the content of one metrics_<crf>.json file: key string to
// frame number (as a JSON object key) to score.
type jsonFile map[string]map[string]float64

// JSONStore keeps one metrics_<crf>.json file per CRF in a directory. The
// directory is locked for the lifetime of the store.
type JSONStore struct {
	dir  string
	lock *flock.Flock

	mu    sync.Mutex
	files map[int]jsonFile
}

// OpenJSON opens the store in dir, loading any existing metrics files.
func OpenJSON(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerrors.NewCacheError("failed to create cache directory", err)
	}

	lock := flock.New(filepath.Join(dir, ".cache.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, cerrors.NewCacheError("acquire cache lock", err)
	}
	if !ok {
		return nil, cerrors.NewCacheError(fmt.Sprintf("cache %s is in use by another process", dir), nil)
	}

	s := &JSONStore{dir: dir, lock: lock, files: make(map[int]jsonFile)}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return cerrors.NewCacheError("read cache directory", err)
	}
	for _, e := range entries {
		m := metricsFileRegex.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		crf, _ := strconv.Atoi(m[1])
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return cerrors.NewCacheError("read "+e.Name(), err)
		}
		var f jsonFile
		if err := json.Unmarshal(data, &f); err != nil {
			return cerrors.NewCacheError("parse "+e.Name(), cerrors.NewJSONParseError(e.Name(), err))
		}
		s.files[crf] = f
		logger().Debug("loaded metrics file", "file", e.Name(), "entries", len(f))
	}
	return nil
}

func (s *JSONStore) path(crf int) string {
	return filepath.Join(s.dir, fmt.Sprintf("metrics_%d.json", crf))
}

// Get implements Store.
func (s *JSONStore) Get(_ context.Context, key Key) (Scores, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.files[key.CRF][key.String()]
	if !ok || len(entry) == 0 {
		return nil, false, nil
	}
	scores := make(Scores, len(entry))
	for frame, score := range entry {
		f, err := strconv.Atoi(frame)
		if err != nil {
			continue
		}
		scores[f] = score
	}
	return scores, true, nil
}

// Put implements Store.
func (s *JSONStore) Put(_ context.Context, key Key, scores Scores) error {
	if len(scores) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.files[key.CRF]
	if f == nil {
		f = make(jsonFile)
		s.files[key.CRF] = f
	}
	entry := f[key.String()]
	if entry == nil {
		entry = make(map[string]float64, len(scores))
		f[key.String()] = entry
	}
	for frame, score := range scores {
		entry[strconv.Itoa(frame)] = score
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return cerrors.NewCacheError("encode metrics file", err)
	}
	if err := util.WriteFileAtomic(s.path(key.CRF), data, 0o644); err != nil {
		return cerrors.NewCacheError("write metrics file", err)
	}
	return nil
}

// Stats implements Store.
func (s *JSONStore) Stats(context.Context) ([]CRFStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]CRFStats, 0, len(s.files))
	for crf, f := range s.files {
		st := CRFStats{CRF: crf, Entries: len(f)}
		for _, entry := range f {
			st.Frames += len(entry)
		}
		if st.Entries > 0 {
			stats = append(stats, st)
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].CRF > stats[j].CRF })
	return stats, nil
}

// Clear implements Store.
func (s *JSONStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for crf := range s.files {
		if err := os.Remove(s.path(crf)); err != nil && !os.IsNotExist(err) {
			return cerrors.NewCacheError("remove metrics file", err)
		}
	}
	s.files = make(map[int]jsonFile)
	return nil
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return s.lock.Unlock()
}
