package detector

const (
	boxFields    = 4
	scoresOffset = 5
)

// Decode turns raw network rows into pixel boxes, keeping rows whose best
// class score is strictly above threshold. Rows too short to carry a class
// score are skipped.
func Decode(out *Output, threshold float32) []Box {
	if out == nil {
		return nil
	}

	var boxes []Box
	for _, row := range out.Rows {
		if len(row) <= scoresOffset {
			continue
		}

		classID, confidence := argmax(row[scoresOffset:])
		if confidence <= threshold {
			continue
		}

		boxes = append(boxes, toPixels(row[:boxFields], out.Width, out.Height, classID, confidence))
	}
	return boxes
}

// argmax returns the first index holding the maximum score
func argmax(scores []float32) (int, float32) {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}

// toPixels scales a normalized center box and converts it to a top-left box.
// Conversions truncate toward zero.
func toPixels(coords []float32, width, height int, classID int, confidence float32) Box {
	centerX := int(float64(coords[0]) * float64(width))
	centerY := int(float64(coords[1]) * float64(height))
	w := int(float64(coords[2]) * float64(width))
	h := int(float64(coords[3]) * float64(height))

	return Box{
		X:          int(float64(centerX) - float64(w)/2),
		Y:          int(float64(centerY) - float64(h)/2),
		Width:      w,
		Height:     h,
		Confidence: confidence,
		ClassID:    classID,
	}
}
