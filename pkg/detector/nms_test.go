package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIoU(t *testing.T) {
	a := Box{X: 0, Y: 0, Width: 10, Height: 10}

	assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	assert.InDelta(t, 0.8, IoU(a, Box{X: 0, Y: 0, Width: 10, Height: 8}), 1e-9)
	assert.InDelta(t, 0.0, IoU(a, Box{X: 20, Y: 20, Width: 5, Height: 5}), 1e-9)
	assert.InDelta(t, 1.0, IoU(Box{}, Box{X: 3}), 1e-9)
}

func TestGreedySuppressorKeepsHigherScore(t *testing.T) {
	boxes := []Box{
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.6},
		{X: 0, Y: 0, Width: 10, Height: 8, Confidence: 0.9},
	}

	kept := GreedySuppressor{}.Suppress(boxes, 0.5, 0.7)
	assert.Equal(t, []int{1}, kept)
}

func TestGreedySuppressorKeepsBoxesAtThreshold(t *testing.T) {
	// IoU exactly 0.5 is not above a 0.5 threshold
	boxes := []Box{
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.9},
		{X: 0, Y: 0, Width: 10, Height: 5, Confidence: 0.8},
	}

	kept := GreedySuppressor{}.Suppress(boxes, 0.5, 0.5)
	assert.Equal(t, []int{0, 1}, kept)
}

func TestGreedySuppressorTiesFirstSeenWins(t *testing.T) {
	boxes := []Box{
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.8},
		{X: 1, Y: 0, Width: 10, Height: 10, Confidence: 0.8},
	}

	kept := GreedySuppressor{}.Suppress(boxes, 0.5, 0.7)
	assert.Equal(t, []int{0}, kept)
}

func TestGreedySuppressorScoreThreshold(t *testing.T) {
	boxes := []Box{
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.5},
		{X: 50, Y: 50, Width: 10, Height: 10, Confidence: 0.51},
	}

	kept := GreedySuppressor{}.Suppress(boxes, 0.5, 0.7)
	assert.Equal(t, []int{1}, kept)
}

func TestGreedySuppressorIdempotent(t *testing.T) {
	boxes := []Box{
		{X: 0, Y: 0, Width: 100, Height: 100, Confidence: 0.7},
		{X: 5, Y: 5, Width: 100, Height: 100, Confidence: 0.95},
		{X: 200, Y: 200, Width: 30, Height: 30, Confidence: 0.6},
		{X: 210, Y: 205, Width: 30, Height: 30, Confidence: 0.55},
		{X: 400, Y: 0, Width: 20, Height: 40, Confidence: 0.99},
	}

	s := GreedySuppressor{}
	first := s.Suppress(boxes, 0.5, 0.7)

	survivors := make([]Box, len(first))
	for i, idx := range first {
		survivors[i] = boxes[idx]
	}
	second := s.Suppress(survivors, 0.5, 0.7)

	assert.Len(t, second, len(survivors))
}

func TestGreedySuppressorEmpty(t *testing.T) {
	assert.Empty(t, GreedySuppressor{}.Suppress(nil, 0.5, 0.7))
}

func TestSuppressByClass(t *testing.T) {
	boxes := []Box{
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.7, ClassID: 2},
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.9, ClassID: 2},
		{X: 0, Y: 0, Width: 10, Height: 10, Confidence: 0.8, ClassID: 0},
	}

	kept := suppressByClass(GreedySuppressor{}, boxes, 0.5, 0.7)
	assert.ElementsMatch(t, []int{1, 2}, kept)
}
