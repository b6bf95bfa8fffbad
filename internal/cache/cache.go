// Package cache persists per-frame trial scores so an interrupted or repeated
// run can skip trials it already computed for unchanged scenes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/five82/crfboost/internal/logging"
)

// Key identifies one (scene, CRF) trial. Any change to the video, the scene
// range, the sampled frames or the encoder parameters yields a new key.
type Key struct {
	Fingerprint string
	StartFrame  int
	EndFrame    int
	CRF         int
	SampleHash  string
	ParamsHash  string
}

// String renders the key in a stable form used by the JSON backend.
func (k Key) String() string {
	return fmt.Sprintf("%s:%d-%d:crf%d:%s:%s", k.Fingerprint, k.StartFrame, k.EndFrame, k.CRF, k.SampleHash, k.ParamsHash)
}

// Scores maps source frame numbers to their quality score.
type Scores map[int]float64

// Covers reports whether s has a score for every frame.
func (s Scores) Covers(frames []int) bool {
	for _, f := range frames {
		if _, ok := s[f]; !ok {
			return false
		}
	}
	return true
}

// Store is a resume cache backend.
type Store interface {
	Get(ctx context.Context, key Key) (Scores, bool, error)
	Put(ctx context.Context, key Key, scores Scores) error
	Stats(ctx context.Context) ([]CRFStats, error)
	Clear(ctx context.Context) error
	Close() error
}

// CRFStats summarizes cached entries for one CRF.
type CRFStats struct {
	CRF     int
	Entries int
	Frames  int
}

// Fingerprint identifies a video file by absolute path, size and
// modification time without reading its content.
func Fingerprint(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:8]), nil
}

// HashFrames returns a short stable hash of a frame set.
func HashFrames(frames []int) string {
	sorted := append([]int(nil), frames...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, f := range sorted {
		parts[i] = strconv.Itoa(f)
	}
	return shortHash(strings.Join(parts, ","))
}

// HashParams returns a short stable hash of encoder parameters.
func HashParams(params []string) string {
	return shortHash(strings.Join(params, "\x00"))
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// Kind selects a Store implementation.
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindJSON   Kind = "json"
	KindNone   Kind = "none"
)

// ParseKind converts a cache backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSQLite, KindJSON, KindNone:
		return k, nil
	case "":
		return KindSQLite, nil
	}
	return "", fmt.Errorf("unknown cache backend %q", s)
}

// Open opens the store of the given kind rooted at dir. KindNone returns a
// nil Store.
func Open(ctx context.Context, kind Kind, dir string) (Store, error) {
	switch kind {
	case KindSQLite:
		s, err := OpenSQLite(ctx, filepath.Join(dir, "crfboost.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindJSON:
		s, err := OpenJSON(dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", kind)
}

func logger() *logging.Logger {
	return logging.NewComponentLogger("cache")
}
