// Package darknet runs YOLO darknet models through OpenCV's DNN module.
package darknet

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"igvision/pkg/detector"
	errs "igvision/pkg/errors"
)

const (
	DefaultInputSize = 416
	scaleFactor      = 1.0 / 255.0
)

// Net wraps a darknet network loaded into OpenCV
type Net struct {
	net        gocv.Net
	outputs    []string
	inputSize  int
	configPath string
}

// Option configures a Net
type Option func(*Net)

// WithInputSize sets the square side length images are resized to
func WithInputSize(size int) Option {
	return func(n *Net) {
		if size > 0 {
			n.inputSize = size
		}
	}
}

// Load reads a darknet config and weights pair. Missing or unreadable files
// are reported as model load errors.
func Load(configPath, weightsPath string, opts ...Option) (*Net, error) {
	for _, path := range []string{configPath, weightsPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, errs.ModelLoad(path, err)
		}
	}

	net := gocv.ReadNetFromDarknet(configPath, weightsPath)
	if net.Empty() {
		return nil, errs.ModelLoad(weightsPath, errors.New("network is empty"))
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, errs.ModelLoad(configPath, fmt.Errorf("set backend: %w", err))
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, errs.ModelLoad(configPath, fmt.Errorf("set target: %w", err))
	}

	n := &Net{
		net:        net,
		inputSize:  DefaultInputSize,
		configPath: configPath,
	}
	for _, opt := range opts {
		opt(n)
	}

	outputs, err := outputLayerNames(net)
	if err == nil && len(outputs) == 0 {
		err = errors.New("network has no output layers")
	}
	if err != nil {
		net.Close()
		return nil, errs.ModelLoad(configPath, err)
	}
	n.outputs = outputs
	return n, nil
}

// outputLayerNames resolves the unconnected output layer IDs, which are
// 1-based, to layer names
func outputLayerNames(net gocv.Net) ([]string, error) {
	names := net.GetLayerNames()
	ids := net.GetUnconnectedOutLayers()

	outputs := make([]string, 0, len(ids))
	for _, id := range ids {
		if id < 1 || id > len(names) {
			return nil, fmt.Errorf("output layer %d out of range", id)
		}
		outputs = append(outputs, names[id-1])
	}
	return outputs, nil
}

// Infer reads an image, runs a forward pass and returns every output row
func (n *Net) Infer(imagePath string) (*detector.Output, error) {
	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, errs.ImageDecode(imagePath, errors.New("image is empty or unreadable"))
	}

	blob := gocv.BlobFromImage(img, scaleFactor, image.Pt(n.inputSize, n.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	n.net.SetInput(blob, "")
	layers := n.net.ForwardLayers(n.outputs)
	defer func() {
		for i := range layers {
			layers[i].Close()
		}
	}()

	out := &detector.Output{
		Width:  img.Cols(),
		Height: img.Rows(),
	}
	for _, layer := range layers {
		out.Rows = append(out.Rows, readRows(layer)...)
	}
	return out, nil
}

func readRows(m gocv.Mat) [][]float32 {
	rows, cols := m.Rows(), m.Cols()
	out := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		row := make([]float32, cols)
		for c := 0; c < cols; c++ {
			row[c] = m.GetFloatAt(r, c)
		}
		out[r] = row
	}
	return out
}

// Close releases the network
func (n *Net) Close() error {
	return n.net.Close()
}

// String describes the loaded network
func (n *Net) String() string {
	return fmt.Sprintf("darknet(%s, %dx%d)", n.configPath, n.inputSize, n.inputSize)
}

// Suppressor performs non-max suppression with OpenCV's NMSBoxes
type Suppressor struct{}

// Suppress implements detector.Suppressor
func (Suppressor) Suppress(boxes []detector.Box, scoreThreshold, iouThreshold float32) []int {
	if len(boxes) == 0 {
		return nil
	}

	rects := make([]image.Rectangle, len(boxes))
	scores := make([]float32, len(boxes))
	for i, b := range boxes {
		rects[i] = b.Rect()
		scores[i] = b.Confidence
	}
	return gocv.NMSBoxes(rects, scores, scoreThreshold, iouThreshold)
}
