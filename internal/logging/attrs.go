package logging

import "log/slog"

// Common attribute keys.
const (
	KeyComponent = "component"
	KeyScene     = "scene"
	KeyCRF       = "crf"
	KeyScore     = "score"
	KeyRunID     = "run_id"
	KeyFile      = "file"
)

// Component returns the component attribute.
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

// Scene returns the scene index attribute.
func Scene(id int) slog.Attr { return slog.Int(KeyScene, id) }

// CRF returns the CRF attribute.
func CRF(v int) slog.Attr { return slog.Int(KeyCRF, v) }

// Score returns the quality score attribute.
func Score(v float64) slog.Attr { return slog.Float64(KeyScore, v) }

// RunID returns the run identifier attribute.
func RunID(id string) slog.Attr { return slog.String(KeyRunID, id) }

// File returns the file path attribute.
func File(path string) slog.Attr { return slog.String(KeyFile, path) }

// Err returns an error attribute, or an empty attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
