package query

import (
	"sort"

	"github.com/standardbeagle/findql/internal/types"
)

// evaluateNear reports whether any pair of occurrences of the two terms
// lies within node.Distance words, inclusive. Order of the two terms in
// content is irrelevant.
func (e *Evaluator) evaluateNear(node *Near, content string, opts types.MatchOptions) (bool, error) {
	if node.Left == nil || node.Right == nil || node.Distance < 0 {
		warnInvalidNear(node)
		return false, nil
	}
	if content == "" {
		return false, nil
	}

	// Inside NEAR the fuzzy gate is the NEAR-specific flag
	nearOpts := opts
	nearOpts.FuzzyEnabled = opts.FuzzyNearEnabled

	left, err := e.matcher.FindPositions(content, node.Left.Term, nearOpts)
	if err != nil {
		return false, err
	}
	if len(left) == 0 {
		return false, nil
	}
	right, err := e.matcher.FindPositions(content, node.Right.Term, nearOpts)
	if err != nil {
		return false, err
	}
	if len(right) == 0 {
		return false, nil
	}

	sort.Ints(left)
	sort.Ints(right)

	// Cheap character-distance reject before any word-boundary work. An
	// average word plus its delimiter is estimated at 6 characters; the
	// factor of two keeps the bound conservative.
	if len(left) > types.NearPrefilterMin && len(right) > types.NearPrefilterMin {
		maxCharDistance := node.Distance * types.AvgWordLength * 2
		if !anyPairWithin(left, right, maxCharDistance) {
			return false, nil
		}
	}

	ix := e.words.Index(content)
	for _, pos := range left {
		w1, ok := ix.WordAt(pos)
		if !ok {
			// A match start in whitespace cannot resolve to a word; skip it
			continue
		}
		for _, candidate := range closestCandidates(right, pos, types.NearCandidateLimit) {
			w2, ok := ix.WordAt(candidate)
			if !ok {
				continue
			}
			if abs(w1-w2) <= node.Distance {
				return true, nil
			}
		}
	}
	return false, nil
}

// anyPairWithin reports whether two ascending position lists contain a pair
// at most maxDist characters apart. Linear merge walk, no cross product.
func anyPairWithin(a, b []int, maxDist int) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		d := a[i] - b[j]
		if d < 0 {
			d = -d
		}
		if d <= maxDist {
			return true
		}
		if a[i] < b[j] {
			i++
		} else {
			j++
		}
	}
	return false
}

// closestCandidates returns up to limit entries of the ascending list that
// are nearest to target, found by binary search and widening in both
// directions. Examining only the nearest candidates replaces the full cross
// product without missing a satisfying pair, since word distance grows with
// character distance.
func closestCandidates(positions []int, target, limit int) []int {
	n := len(positions)
	if n <= limit {
		return positions
	}

	right := sort.SearchInts(positions, target)
	left := right - 1

	out := make([]int, 0, limit)
	for len(out) < limit && (left >= 0 || right < n) {
		switch {
		case left < 0:
			out = append(out, positions[right])
			right++
		case right >= n:
			out = append(out, positions[left])
			left--
		case target-positions[left] <= positions[right]-target:
			out = append(out, positions[left])
			left--
		default:
			out = append(out, positions[right])
			right++
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
