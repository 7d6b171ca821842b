package detect

import "sort"

// nms implements a Non-Maximum Suppression (NMS) algorithm.  Candidates are
// swept in confidence descending order and one is kept only if its IoU with
// every already kept candidate of the same class is at or below the
// threshold.  Candidates of different classes never suppress each other.
func nms(candidates []DetectResult, threshold float32) []DetectResult {

	if len(candidates) == 0 {
		return nil
	}

	order := make([]DetectResult, len(candidates))
	copy(order, candidates)

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Probability > order[j].Probability
	})

	keep := make([]DetectResult, 0, len(order))

	for _, cand := range order {

		suppressed := false

		for _, kept := range keep {

			if kept.Class != cand.Class {
				continue
			}

			if CalculateIoU(kept.Box, cand.Box) > threshold {
				suppressed = true
				break
			}
		}

		if !suppressed {
			keep = append(keep, cand)
		}
	}

	return keep
}
