package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConvertsToPixels(t *testing.T) {
	out := &Output{
		Width:  200,
		Height: 100,
		Rows:   [][]float32{row(0.5, 0.5, 0.25, 0.5, 0.1, 0.9)},
	}

	boxes := Decode(out, 0.5)
	require.Len(t, boxes, 1)
	assert.Equal(t, Box{X: 75, Y: 25, Width: 50, Height: 50, Confidence: 0.9, ClassID: 1}, boxes[0])
}

func TestDecodeTruncatesHalfPixels(t *testing.T) {
	out := &Output{
		Width:  100,
		Height: 100,
		Rows:   [][]float32{row(0.5, 0.5, 0.05, 0.05, 0.9)},
	}

	boxes := Decode(out, 0.5)
	require.Len(t, boxes, 1)
	assert.Equal(t, 47, boxes[0].X)
	assert.Equal(t, 47, boxes[0].Y)
	assert.Equal(t, 5, boxes[0].Width)
}

func TestDecodeNegativeOrigin(t *testing.T) {
	out := &Output{
		Width:  100,
		Height: 100,
		Rows:   [][]float32{row(0, 0, 0.1, 0.1, 0.9)},
	}

	boxes := Decode(out, 0.5)
	require.Len(t, boxes, 1)
	assert.Equal(t, -5, boxes[0].X)
	assert.Equal(t, -5, boxes[0].Y)
}

func TestDecodeFiltersLowConfidence(t *testing.T) {
	out := &Output{
		Width:  100,
		Height: 100,
		Rows: [][]float32{
			row(0.5, 0.5, 0.1, 0.1, 0.2, 0.3),
			row(0.5, 0.5, 0.1, 0.1, 0.5, 0.1),
			row(0.5, 0.5, 0.1, 0.1, 0.51, 0.1),
		},
	}

	boxes := Decode(out, 0.5)
	require.Len(t, boxes, 1)
	assert.Equal(t, 0, boxes[0].ClassID)
	for _, b := range boxes {
		assert.Greater(t, b.Confidence, float32(0.5))
	}
}

func TestDecodeArgmaxFirstWins(t *testing.T) {
	out := &Output{
		Width:  10,
		Height: 10,
		Rows:   [][]float32{row(0.5, 0.5, 0.1, 0.1, 0.1, 0.8, 0.8)},
	}

	boxes := Decode(out, 0.5)
	require.Len(t, boxes, 1)
	assert.Equal(t, 1, boxes[0].ClassID)
}

func TestDecodeSkipsShortRows(t *testing.T) {
	out := &Output{Width: 10, Height: 10, Rows: [][]float32{{0.5, 0.5, 0.1, 0.1, 1}}}
	assert.Empty(t, Decode(out, 0.5))
	assert.Empty(t, Decode(nil, 0.5))
}
