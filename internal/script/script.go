// Package script describes a scroll journey over time, used to render the
// journey headlessly. Keyframes pin the scroll progress at given times.
package script

import (
	"fmt"
	"sort"

	"github.com/ivlev/forestscroll/internal/easing"
)

// Script is a complete scroll journey.
type Script struct {
	Version   string     `yaml:"version"`
	Duration  float64    `yaml:"duration"` // Total duration in seconds
	FPS       int        `yaml:"fps"`
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Keyframe is the scroll progress at a moment. Ease shapes the way from
// this keyframe to the next.
type Keyframe struct {
	Time     float64 `yaml:"time"`     // Time offset in seconds
	Progress float64 `yaml:"progress"` // Scroll progress in [0,1]
	Ease     string  `yaml:"ease,omitempty"`
}

// Default scrolls linearly from top to bottom in duration seconds.
func Default(duration float64, fps int) *Script {
	return &Script{
		Version:  "1.0",
		Duration: duration,
		FPS:      fps,
		Keyframes: []Keyframe{
			{Time: 0, Progress: 0, Ease: "linear"},
			{Time: duration, Progress: 1},
		},
	}
}

// Tour stops at evenly spaced points along the journey, easing between
// them and holding each stop for a share of its segment.
func Tour(duration float64, fps, stops int, hold float64) *Script {
	if stops < 1 {
		return Default(duration, fps)
	}
	s := &Script{Version: "1.0", Duration: duration, FPS: fps}
	segment := duration / float64(stops)
	for i := 0; i < stops; i++ {
		start := float64(i) * segment
		from := float64(i) / float64(stops)
		s.Keyframes = append(s.Keyframes,
			Keyframe{Time: start, Progress: from},
			Keyframe{Time: start + segment*hold, Progress: from, Ease: "inOutCubic"},
		)
	}
	s.Keyframes = append(s.Keyframes, Keyframe{Time: duration, Progress: 1})
	return s
}

func (s *Script) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("script duration must be positive, got %v", s.Duration)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("script fps must be positive, got %d", s.FPS)
	}
	if len(s.Keyframes) == 0 {
		return fmt.Errorf("script has no keyframes")
	}
	for i, kf := range s.Keyframes {
		if kf.Progress < 0 || kf.Progress > 1 {
			return fmt.Errorf("keyframe %d: progress %v outside [0,1]", i, kf.Progress)
		}
		if !easing.Known(kf.Ease) {
			return fmt.Errorf("keyframe %d: unknown ease %q", i, kf.Ease)
		}
		if i > 0 && kf.Time < s.Keyframes[i-1].Time {
			return fmt.Errorf("keyframe %d: time %v before previous keyframe", i, kf.Time)
		}
	}
	return nil
}

// Frames is the number of video frames the script spans.
func (s *Script) Frames() int {
	return int(s.Duration * float64(s.FPS))
}

// ProgressAt interpolates the scroll progress at time t. Before the first
// and after the last keyframe the end values hold.
func (s *Script) ProgressAt(t float64) float64 {
	kfs := s.Keyframes
	if len(kfs) == 0 {
		return 0
	}
	if t <= kfs[0].Time {
		return kfs[0].Progress
	}
	last := kfs[len(kfs)-1]
	if t >= last.Time {
		return last.Progress
	}

	// First keyframe strictly after t.
	i := sort.Search(len(kfs), func(i int) bool { return kfs[i].Time > t })
	prev, next := kfs[i-1], kfs[i]

	span := next.Time - prev.Time
	if span <= 0 {
		return next.Progress
	}
	f := easing.ByName(prev.Ease)((t - prev.Time) / span)
	return easing.Lerp(prev.Progress, next.Progress, f)
}
