// Package scene models the scene partition of a video and turns raw detector
// cut points into a well-formed, length-bounded partition.
package scene

import "fmt"

// Scene is a half-open frame range [StartFrame, EndFrame).
type Scene struct {
	ID         int `json:"id"`
	StartFrame int `json:"start_frame"`
	EndFrame   int `json:"end_frame"`
}

// Len returns the number of frames in the scene.
func (s Scene) Len() int {
	return s.EndFrame - s.StartFrame
}

// Contains reports whether frame lies inside the scene.
func (s Scene) Contains(frame int) bool {
	return frame >= s.StartFrame && frame < s.EndFrame
}

// Middle returns the middle frame of the scene.
func (s Scene) Middle() int {
	return s.StartFrame + s.Len()/2
}

func (s Scene) String() string {
	return fmt.Sprintf("scene %d [%d, %d)", s.ID, s.StartFrame, s.EndFrame)
}

// Validate checks that scenes form a contiguous partition of [0, totalFrames).
func Validate(scenes []Scene, totalFrames int) error {
	if totalFrames == 0 && len(scenes) == 0 {
		return nil
	}
	if len(scenes) == 0 {
		return fmt.Errorf("no scenes for %d frames", totalFrames)
	}

	next := 0
	for i, s := range scenes {
		if s.EndFrame <= s.StartFrame {
			return fmt.Errorf("scene %d is empty: [%d, %d)", i, s.StartFrame, s.EndFrame)
		}
		if s.StartFrame != next {
			return fmt.Errorf("scene %d starts at %d, expected %d", i, s.StartFrame, next)
		}
		next = s.EndFrame
	}

	if next != totalFrames {
		return fmt.Errorf("scenes end at %d, expected %d", next, totalFrames)
	}
	return nil
}
