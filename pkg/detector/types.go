package detector

import (
	"image"

	"igvision/pkg/labels"
)

// Box is one detection in absolute pixel coordinates, top-left anchored
type Box struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float32
	ClassID    int
}

// Rect converts the box to an image.Rectangle
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Area returns width*height, zero for degenerate boxes
func (b Box) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// IoU returns the intersection-over-union of two boxes. Two boxes that both
// have zero area are considered identical.
func IoU(a, b Box) float64 {
	areaA, areaB := a.Area(), b.Area()
	if areaA+areaB == 0 {
		return 1
	}
	inter := a.Rect().Intersect(b.Rect())
	interArea := inter.Dx() * inter.Dy()
	return float64(interArea) / float64(areaA+areaB-interArea)
}

// Output holds the raw rows of every output layer for one image, plus the
// source image dimensions used to scale normalized coordinates.
//
// Each row is laid out as [cx, cy, w, h, objectness, score_0 ... score_n]
// with coordinates normalized to [0,1].
type Output struct {
	Width  int
	Height int
	Rows   [][]float32
}

// Network runs a forward pass for an image file
type Network interface {
	Infer(imagePath string) (*Output, error)
	Close() error
}

// Suppressor selects the indices of boxes that survive non-max suppression
type Suppressor interface {
	Suppress(boxes []Box, scoreThreshold, iouThreshold float32) []int
}

// Counts maps every label to the number of kept detections of that class
type Counts map[string]int

// NewCounts returns zero counts for every label in set
func NewCounts(set *labels.Set) Counts {
	c := make(Counts, set.Len())
	for _, name := range set.Names() {
		c[name] = 0
	}
	return c
}

// Total returns the number of objects across all labels
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
