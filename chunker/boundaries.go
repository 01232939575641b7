package chunker

import (
	"fmt"
	"sort"

	"chunkqueue/models"
)

// DeriveBoundaries turns a frame count and a list of split frames into an
// ordered, gapless partition of [0, totalFrames).
//
// Splits may come in any order, may repeat and may omit 0 and totalFrames.
// 0 and totalFrames are always added exactly once. With no splits the whole
// stream becomes a single boundary.
//
// Returns ErrInvalidBoundary when totalFrames is not positive or a split lies
// outside [0, totalFrames].
//
// Example:
//
//	bounds, _ := DeriveBoundaries(100, []int{70, 30})
//	// [0,30) [30,70) [70,100)
func DeriveBoundaries(totalFrames int, splits []int) ([]models.Boundary, error) {
	if totalFrames <= 0 {
		return nil, fmt.Errorf("%w: total frame count %d must be positive", models.ErrInvalidBoundary, totalFrames)
	}

	points := make([]int, 0, len(splits)+2)
	points = append(points, 0, totalFrames)
	for _, s := range splits {
		if s < 0 || s > totalFrames {
			return nil, fmt.Errorf("%w: split %d outside [0,%d]", models.ErrInvalidBoundary, s, totalFrames)
		}
		points = append(points, s)
	}

	sort.Ints(points)
	unique := points[:1]
	for _, p := range points[1:] {
		if p != unique[len(unique)-1] {
			unique = append(unique, p)
		}
	}

	bounds := make([]models.Boundary, 0, len(unique)-1)
	for i := 0; i < len(unique)-1; i++ {
		b := models.Boundary{Start: unique[i], End: unique[i+1]}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		bounds = append(bounds, b)
	}

	return bounds, nil
}

// ValidateBoundaries checks that bounds partition [0, totalFrames) exactly.
func ValidateBoundaries(bounds []models.Boundary, totalFrames int) error {
	if len(bounds) == 0 {
		return fmt.Errorf("%w: boundary list is empty", models.ErrInvalidBoundary)
	}

	if bounds[0].Start != 0 {
		return fmt.Errorf("%w: first boundary starts at %d, expected 0", models.ErrInvalidBoundary, bounds[0].Start)
	}

	if last := bounds[len(bounds)-1]; last.End != totalFrames {
		return fmt.Errorf("%w: last boundary ends at %d, expected %d", models.ErrInvalidBoundary, last.End, totalFrames)
	}

	for i, b := range bounds {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("boundary %d: %w", i, err)
		}
		if i > 0 && bounds[i-1].End != b.Start {
			return fmt.Errorf("%w: boundaries %d and %d do not meet (%d != %d)",
				models.ErrInvalidBoundary, i-1, i, bounds[i-1].End, b.Start)
		}
	}

	return nil
}
