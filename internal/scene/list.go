package scene

import (
	"encoding/json"
	"fmt"
	"os"

	cerrors "github.com/five82/crfboost/internal/errors"
)

// ListEntry is one scene record in a scene list document.
type ListEntry struct {
	StartFrame    int             `json:"start_frame"`
	EndFrame      int             `json:"end_frame"`
	ZoneOverrides json.RawMessage `json:"zone_overrides,omitempty"`
}

// List is the JSON scene document produced by scene detectors and consumed
// by encode orchestrators.
type List struct {
	Scenes []ListEntry `json:"scenes"`
	Frames int         `json:"frames"`
}

// LoadList reads a scene list from a JSON file.
func LoadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.NewIOError(fmt.Sprintf("read scene file %s", path), err)
	}
	return ParseList(data)
}

// ParseList decodes a scene list document.
func ParseList(data []byte) (*List, error) {
	var list List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, cerrors.NewJSONParseError("decode scene list", err)
	}

	for i, e := range list.Scenes {
		if e.EndFrame <= e.StartFrame {
			return nil, cerrors.NewJSONParseError(
				fmt.Sprintf("scene %d has empty range [%d, %d)", i, e.StartFrame, e.EndFrame), nil)
		}
	}

	if list.Frames == 0 {
		for _, e := range list.Scenes {
			list.Frames = max(list.Frames, e.EndFrame)
		}
	}
	return &list, nil
}

// Cuts returns the start frame of every listed scene.
func (l *List) Cuts() []int {
	cuts := make([]int, len(l.Scenes))
	for i, e := range l.Scenes {
		cuts[i] = e.StartFrame
	}
	return cuts
}

// NewList builds a scene list document from a partition.
func NewList(scenes []Scene, totalFrames int) *List {
	entries := make([]ListEntry, len(scenes))
	for i, s := range scenes {
		entries[i] = ListEntry{StartFrame: s.StartFrame, EndFrame: s.EndFrame}
	}
	return &List{Scenes: entries, Frames: totalFrames}
}

// Marshal encodes the list as indented JSON.
func (l *List) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode scene list: %w", err)
	}
	return append(data, '\n'), nil
}
