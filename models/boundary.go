package models

import "fmt"

// Boundary is a half-open frame range [Start, End) of the source.
type Boundary struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Frames returns the number of frames in the range.
func (b Boundary) Frames() int {
	return b.End - b.Start
}

// LastFrame returns the inclusive end frame used by seek-style commands.
func (b Boundary) LastFrame() int {
	return b.End - 1
}

// Validate returns ErrInvalidBoundary when the range is empty or negative.
func (b Boundary) Validate() error {
	if b.Start < 0 {
		return fmt.Errorf("%w: start %d is negative", ErrInvalidBoundary, b.Start)
	}
	if b.End <= b.Start {
		return fmt.Errorf("%w: end %d must be greater than start %d", ErrInvalidBoundary, b.End, b.Start)
	}
	return nil
}

func (b Boundary) String() string {
	return fmt.Sprintf("[%d,%d)", b.Start, b.End)
}
