package model

import (
	"math"
	"sort"
)

// treeNode is one node of a regression tree fit to boosting gradients.
// Rows with a missing (NaN) feature value always follow the right
// branch.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`

	Left  *treeNode `json:"left,omitempty"`
	Right *treeNode `json:"right,omitempty"`

	Leaf  bool    `json:"leaf"`
	Value float64 `json:"value"`
}

func (obj *treeNode) predict(row []float64) float64 {
	node := obj
	for !node.Leaf {
		value := row[node.Feature]
		if math.IsNaN(value) || value > node.Threshold {
			node = node.Right
		} else {
			node = node.Left
		}
	}
	return node.Value
}

// regularization term on leaf weights, keeps leaf values finite when a
// node's hessian mass is tiny
const treeLambda = 1.0

// maxLeafValue clamps the Newton step per leaf
const maxLeafValue = 4.0

type treeBuilder struct {
	features [][]float64
	grad     []float64
	hess     []float64
	weights  []float64

	maxDepth       int
	minSamplesLeaf int
}

func (obj *treeBuilder) build(indices []int, depth int) *treeNode {

	if depth >= obj.maxDepth || len(indices) < 2*obj.minSamplesLeaf {
		return obj.leaf(indices)
	}

	feature, threshold, gain := obj.bestSplit(indices)
	if gain <= 0 {
		return obj.leaf(indices)
	}

	leftIdxs := make([]int, 0, len(indices))
	rightIdxs := make([]int, 0, len(indices))
	for _, idx := range indices {
		value := obj.features[idx][feature]
		if math.IsNaN(value) || value > threshold {
			rightIdxs = append(rightIdxs, idx)
		} else {
			leftIdxs = append(leftIdxs, idx)
		}
	}
	if len(leftIdxs) < obj.minSamplesLeaf || len(rightIdxs) < obj.minSamplesLeaf {
		return obj.leaf(indices)
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      obj.build(leftIdxs, depth+1),
		Right:     obj.build(rightIdxs, depth+1),
	}
}

func (obj *treeBuilder) leaf(indices []int) *treeNode {
	var gradSum, hessSum float64
	for _, idx := range indices {
		gradSum += obj.weights[idx] * obj.grad[idx]
		hessSum += obj.weights[idx] * obj.hess[idx]
	}
	value := gradSum / (hessSum + treeLambda)
	if value > maxLeafValue {
		value = maxLeafValue
	} else if value < -maxLeafValue {
		value = -maxLeafValue
	}
	return &treeNode{Leaf: true, Value: value}
}

// bestSplit scans every feature for the threshold with the largest
// gradient-gain. Rows with a missing value are pinned to the right
// side, so they contribute to every candidate split's right sums.
func (obj *treeBuilder) bestSplit(indices []int) (int, float64, float64) {

	var totalGrad, totalHess float64
	for _, idx := range indices {
		totalGrad += obj.weights[idx] * obj.grad[idx]
		totalHess += obj.weights[idx] * obj.hess[idx]
	}
	baseScore := totalGrad * totalGrad / (totalHess + treeLambda)

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	numFeatures := len(obj.features[indices[0]])
	sorted := make([]int, 0, len(indices))
	for feature := 0; feature < numFeatures; feature++ {

		sorted = sorted[:0]
		var missingGrad, missingHess float64
		missingCount := 0
		for _, idx := range indices {
			if math.IsNaN(obj.features[idx][feature]) {
				missingGrad += obj.weights[idx] * obj.grad[idx]
				missingHess += obj.weights[idx] * obj.hess[idx]
				missingCount++
			} else {
				sorted = append(sorted, idx)
			}
		}
		if len(sorted) < 2 {
			continue
		}
		sort.Slice(sorted, func(a, b int) bool {
			return obj.features[sorted[a]][feature] < obj.features[sorted[b]][feature]
		})

		var leftGrad, leftHess float64
		for pos := 0; pos < len(sorted)-1; pos++ {
			idx := sorted[pos]
			leftGrad += obj.weights[idx] * obj.grad[idx]
			leftHess += obj.weights[idx] * obj.hess[idx]

			current := obj.features[idx][feature]
			next := obj.features[sorted[pos+1]][feature]
			if current == next {
				continue
			}

			leftCount := pos + 1
			rightCount := len(sorted) - leftCount + missingCount
			if leftCount < obj.minSamplesLeaf || rightCount < obj.minSamplesLeaf {
				continue
			}

			rightGrad := totalGrad - leftGrad
			rightHess := totalHess - leftHess
			gain := leftGrad*leftGrad/(leftHess+treeLambda) +
				rightGrad*rightGrad/(rightHess+treeLambda) -
				baseScore
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = current + (next-current)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}
