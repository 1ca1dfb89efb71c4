// Package slider implements the before/after comparison widget: a divider
// position over two stacked images plus the carousel selecting which case is
// shown.
package slider

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/manuwestern/dionwebsite/internal/carousel"
)

const (
	// MinPosition and MaxPosition bound the divider position in percent.
	MinPosition = 0.0
	MaxPosition = 100.0
	// DefaultPosition is restored whenever the active case changes.
	DefaultPosition = 50.0
)

// Slider holds {case, position} for one widget instance.
type Slider struct {
	mu       sync.Mutex
	cases    *carousel.Carousel
	position float64
}

// New creates a slider over caseCount cases. The case carousel uses the
// until-interaction policy so a visitor who picks a case keeps it.
func New(caseCount int, opts ...carousel.Option) (*Slider, error) {
	c, err := carousel.New(caseCount, carousel.AutoplayUntilInteraction, opts...)
	if err != nil {
		return nil, fmt.Errorf("slider: %w", err)
	}
	return &Slider{cases: c, position: DefaultPosition}, nil
}

// Restore rebuilds a slider from request parameters.
func Restore(caseCount, caseIndex int, position float64, controlled bool) (*Slider, error) {
	s, err := New(caseCount, carousel.WithIndex(wrap(caseIndex, caseCount)), carousel.WithControlled(controlled))
	if err != nil {
		return nil, err
	}
	s.SetViaControl(position)
	return s, nil
}

// Case returns the active case index.
func (s *Slider) Case() int { return s.cases.Index() }

// CaseCount returns how many cases the slider cycles through.
func (s *Slider) CaseCount() int { return s.cases.Count() }

// Position returns the divider position in percent.
func (s *Slider) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Controlled reports whether the visitor has taken over case selection.
func (s *Slider) Controlled() bool { return s.cases.Controlled() }

// Carousel exposes the case selector for rendering indicators.
func (s *Slider) Carousel() *carousel.Carousel { return s.cases }

// SelectCase activates case i modulo the case count and resets the divider.
func (s *Slider) SelectCase(i int) int {
	idx := s.cases.GoTo(wrap(i, s.cases.Count()))
	s.resetPosition()
	return idx
}

// NextCase and PrevCase step through cases manually.
func (s *Slider) NextCase() int {
	idx := s.cases.Next()
	s.resetPosition()
	return idx
}

func (s *Slider) PrevCase() int {
	idx := s.cases.Prev()
	s.resetPosition()
	return idx
}

// Drag maps a pointer x coordinate onto the track. A track without width
// leaves the position untouched.
func (s *Slider) Drag(clientX, trackLeft, trackWidth float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trackWidth <= 0 || math.IsNaN(trackWidth) || math.IsNaN(clientX) || math.IsNaN(trackLeft) {
		return s.position
	}
	v := 100 * (clientX - trackLeft) / trackWidth
	if math.IsNaN(v) {
		return s.position
	}
	s.position = Clamp(v)
	return s.position
}

// SetViaControl assigns the position directly, as a range input does.
func (s *Slider) SetViaControl(value float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if math.IsNaN(value) {
		return s.position
	}
	s.position = Clamp(value)
	return s.position
}

// Autoplay rotates cases until the visitor interacts. Every automatic advance
// resets the divider before onAdvance runs.
func (s *Slider) Autoplay(interval time.Duration, onAdvance func(caseIndex int)) error {
	return s.cases.Autoplay(interval, func(idx int) {
		s.resetPosition()
		if onAdvance != nil {
			onAdvance(idx)
		}
	})
}

// Tick performs one automatic case advance, resetting the divider when the
// case moved. It is the polling counterpart of Autoplay.
func (s *Slider) Tick() (int, bool) {
	idx, moved := s.cases.Tick()
	if moved {
		s.resetPosition()
	}
	return idx, moved
}

// Stop cancels case autoplay.
func (s *Slider) Stop() { s.cases.Stop() }

func (s *Slider) resetPosition() {
	s.mu.Lock()
	s.position = DefaultPosition
	s.mu.Unlock()
}

// Layers describes how the two image layers are drawn for a position.
type Layers struct {
	// ClipPercent is the width of the clipping container in percent.
	ClipPercent float64
	// AfterWidthPercent scales the inner image back to full track width.
	AfterWidthPercent float64
	AfterVisible      bool
	BeforeVisible     bool
}

// Layers returns the rendering contract for the current position.
func (s *Slider) Layers() Layers {
	return LayersFor(s.Position())
}

// hiddenBelow is the smallest position that still shows the after layer.
// Anything closer to zero would overflow the inverse scale.
const hiddenBelow = 1e-6

// LayersFor computes layer geometry for position p. Near p == 0 the inverse
// scale is undefined, so the after layer is hidden with zero width.
func LayersFor(p float64) Layers {
	p = Clamp(p)
	if p < hiddenBelow {
		p = MinPosition
	}
	l := Layers{
		ClipPercent:   p,
		AfterVisible:  p > MinPosition,
		BeforeVisible: p < MaxPosition,
	}
	if p > MinPosition {
		l.AfterWidthPercent = 100 / (p / 100)
	}
	return l
}

// Clamp bounds v to [0, 100]. NaN maps to the default position.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultPosition
	case v < MinPosition:
		return MinPosition
	case v > MaxPosition:
		return MaxPosition
	default:
		return v
	}
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
