package ffmpeg

import (
	"strings"
)

// Params is an encoder command line in "--key value" form, for example
// "--preset 4 --tune 3 --enable-qm 1". Flags without a value are allowed.
type Params []string

// ParseParams splits s on whitespace.
func ParseParams(s string) Params {
	return Params(strings.Fields(s))
}

func isFlag(tok string) bool {
	return strings.HasPrefix(tok, "--") || (strings.HasPrefix(tok, "-") && len(tok) > 1 && (tok[1] < '0' || tok[1] > '9') && tok[1] != '.')
}

// find returns the index of key and whether a value follows it.
func (p Params) find(key string) (int, bool) {
	for i, tok := range p {
		if tok == key {
			return i, i+1 < len(p) && !isFlag(p[i+1])
		}
	}
	return -1, false
}

// Value returns the value following key.
func (p Params) Value(key string) (string, bool) {
	i, hasValue := p.find(key)
	if i < 0 || !hasValue {
		return "", false
	}
	return p[i+1], true
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	i, _ := p.find(key)
	return i >= 0
}

// With returns a copy of p with key set to value, replacing an existing
// value in place or appending the pair.
func (p Params) With(key, value string) Params {
	out := append(Params(nil), p...)
	i, hasValue := out.find(key)
	switch {
	case i < 0:
		return append(out, key, value)
	case hasValue:
		out[i+1] = value
		return out
	default:
		out = append(out[:i+1], append(Params{value}, out[i+1:]...)...)
		return out
	}
}

// Without returns a copy of p with key and its value removed.
func (p Params) Without(key string) Params {
	out := append(Params(nil), p...)
	i, hasValue := out.find(key)
	if i < 0 {
		return out
	}
	end := i + 1
	if hasValue {
		end++
	}
	return append(out[:i], out[end:]...)
}

// String joins the params with single spaces.
func (p Params) String() string {
	return strings.Join(p, " ")
}
