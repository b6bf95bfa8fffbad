package zones

import (
	"strconv"

	"github.com/five82/crfboost/internal/ffmpeg"
)

// SetParam sets key to value in a "--key value" parameter string, replacing
// an existing value or appending the pair.
func SetParam(params, key, value string) string {
	return ffmpeg.ParseParams(params).With(key, value).String()
}

// RemoveParam removes key and its value from a parameter string.
func RemoveParam(params, key string) string {
	return ffmpeg.ParseParams(params).Without(key).String()
}

// ParamValue returns the value that follows key in a parameter string.
func ParamValue(params, key string) (string, bool) {
	return ffmpeg.ParseParams(params).Value(key)
}

// WithCRF returns params with --crf set to crf.
func WithCRF(params ffmpeg.Params, crf int) ffmpeg.Params {
	return params.With("--crf", strconv.Itoa(crf))
}

func intParam(p ffmpeg.Params, key string) *int {
	v, ok := p.Value(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
