package detector

import "sort"

// GreedySuppressor is a pure Go non-max suppression with the same selection
// rules as OpenCV's NMSBoxes: candidates scoring above the score threshold
// are visited by descending score (stable, so the first-seen box wins ties)
// and a candidate is kept only if its IoU with every kept box is at most the
// IoU threshold.
type GreedySuppressor struct{}

// Suppress returns the indices of the kept boxes in visiting order
func (GreedySuppressor) Suppress(boxes []Box, scoreThreshold, iouThreshold float32) []int {
	order := make([]int, 0, len(boxes))
	for i, b := range boxes {
		if b.Confidence > scoreThreshold {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return boxes[order[a]].Confidence > boxes[order[b]].Confidence
	})

	kept := make([]int, 0, len(order))
	for _, idx := range order {
		keep := true
		for _, k := range kept {
			if IoU(boxes[idx], boxes[k]) > float64(iouThreshold) {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, idx)
		}
	}
	return kept
}

// suppressByClass runs s separately over each class so boxes of different
// classes never suppress each other. Returned indices refer to boxes.
func suppressByClass(s Suppressor, boxes []Box, scoreThreshold, iouThreshold float32) []int {
	groups := make(map[int][]int)
	var classes []int
	for i, b := range boxes {
		if _, ok := groups[b.ClassID]; !ok {
			classes = append(classes, b.ClassID)
		}
		groups[b.ClassID] = append(groups[b.ClassID], i)
	}

	var kept []int
	for _, class := range classes {
		members := groups[class]
		subset := make([]Box, len(members))
		for j, idx := range members {
			subset[j] = boxes[idx]
		}
		for _, j := range s.Suppress(subset, scoreThreshold, iouThreshold) {
			kept = append(kept, members[j])
		}
	}
	return kept
}
