// Package detector counts the objects a YOLO-style network finds in an image.
//
// The network itself sits behind the Network interface so the decoding,
// suppression and counting logic can be exercised without model files. The
// darknet subpackage provides the OpenCV-backed implementation.
package detector

import (
	"fmt"

	"igvision/pkg/labels"
	"igvision/pkg/logger"
)

const (
	DefaultConfidenceThreshold float32 = 0.5
	DefaultNMSThreshold        float32 = 0.7
)

// Detector turns an image path into per-label object counts. It is not safe
// for concurrent use when the underlying Network is not.
type Detector struct {
	net        Network
	labels     *labels.Set
	suppressor Suppressor
	confidence float32
	nms        float32
	classAware bool
	log        logger.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithSuppressor replaces the default pure Go suppressor
func WithSuppressor(s Suppressor) Option {
	return func(d *Detector) {
		if s != nil {
			d.suppressor = s
		}
	}
}

// WithThresholds sets the confidence and IoU thresholds
func WithThresholds(confidence, nms float32) Option {
	return func(d *Detector) {
		d.confidence = confidence
		d.nms = nms
	}
}

// WithClassAwareSuppression makes suppression run per class instead of
// across all boxes
func WithClassAwareSuppression(enabled bool) Option {
	return func(d *Detector) {
		d.classAware = enabled
	}
}

// WithLogger sets the logger used for per-image diagnostics
func WithLogger(log logger.Logger) Option {
	return func(d *Detector) {
		if log != nil {
			d.log = log
		}
	}
}

// New creates a Detector over a loaded network and its label set
func New(net Network, set *labels.Set, opts ...Option) *Detector {
	d := &Detector{
		net:        net,
		labels:     set,
		suppressor: GreedySuppressor{},
		confidence: DefaultConfidenceThreshold,
		nms:        DefaultNMSThreshold,
		log:        logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs the network on an image and returns a count for every label,
// zero for labels that were not seen.
func (d *Detector) Detect(imagePath string) (Counts, error) {
	boxes, err := d.Boxes(imagePath)
	if err != nil {
		return nil, err
	}
	return d.Count(boxes), nil
}

// Boxes runs the network on an image and returns the detections that
// survive thresholding and suppression.
func (d *Detector) Boxes(imagePath string) ([]Box, error) {
	out, err := d.net.Infer(imagePath)
	if err != nil {
		return nil, fmt.Errorf("detect %s: %w", imagePath, err)
	}

	candidates := Decode(out, d.confidence)
	kept := d.Suppress(candidates)

	d.log.DebugWithFields("Detection finished", map[string]interface{}{
		"image":      imagePath,
		"candidates": len(candidates),
		"kept":       len(kept),
	})
	return kept, nil
}

// Suppress applies non-max suppression to candidate boxes using the
// detector's thresholds and mode.
func (d *Detector) Suppress(candidates []Box) []Box {
	if len(candidates) == 0 {
		return nil
	}

	var idx []int
	if d.classAware {
		idx = suppressByClass(d.suppressor, candidates, d.confidence, d.nms)
	} else {
		idx = d.suppressor.Suppress(candidates, d.confidence, d.nms)
	}

	kept := make([]Box, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < len(candidates) {
			kept = append(kept, candidates[i])
		}
	}
	return kept
}

// Count tallies boxes per label. Boxes whose class ID has no label are
// dropped with a warning.
func (d *Detector) Count(boxes []Box) Counts {
	counts := NewCounts(d.labels)
	for _, b := range boxes {
		name, ok := d.labels.Name(b.ClassID)
		if !ok {
			d.log.WithField("class_id", b.ClassID).Warn("Detection class has no label")
			continue
		}
		counts[name]++
	}
	return counts
}

// Close releases the underlying network
func (d *Detector) Close() error {
	if d.net == nil {
		return nil
	}
	return d.net.Close()
}
