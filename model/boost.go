// Package model holds the binary classifier behind the pipeline's
// fit / predict-probability boundary: gradient-boosted regression trees
// on the logistic loss, with optional per-row weights and a JSON
// artifact for the trained state.
package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/alekLukanen/errs"
	"gonum.org/v1/gonum/floats"
)

// Classifier is the contract the pipeline trains and scores against.
// Labels are 0/1 floats; weights may be nil for uniform weighting.
type Classifier interface {
	Fit(features [][]float64, labels []float64, weights []float64) error
	PredictProbability(features [][]float64) ([]float64, error)
}

type Options struct {
	Rounds         int     `json:"rounds"`
	LearningRate   float64 `json:"learningRate"`
	MaxDepth       int     `json:"maxDepth"`
	MinSamplesLeaf int     `json:"minSamplesLeaf"`
}

func DefaultOptions() Options {
	return Options{
		Rounds:         100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 5,
	}
}

type GradientBoosting struct {
	options Options

	prior        float64
	trees        []*treeNode
	featureNames []string
}

func NewGradientBoosting(options Options) *GradientBoosting {
	return &GradientBoosting{options: options}
}

// SetFeatureNames records the feature column order the model was fit
// with, so scoring can rebuild the matrix in the same order.
func (obj *GradientBoosting) SetFeatureNames(names []string) {
	obj.featureNames = append([]string(nil), names...)
}

func (obj *GradientBoosting) FeatureNames() []string {
	return append([]string(nil), obj.featureNames...)
}

func (obj *GradientBoosting) Fit(features [][]float64, labels []float64, weights []float64) error {

	numRows := len(features)
	if numRows == 0 {
		return errs.NewStackError(ErrEmptyDataset)
	}
	if len(labels) != numRows {
		return errs.NewStackError(fmt.Errorf("%w: %d features, %d labels", ErrDimensionMismatch, numRows, len(labels)))
	}
	if weights == nil {
		weights = make([]float64, numRows)
		for i := range weights {
			weights[i] = 1.0
		}
	} else if len(weights) != numRows {
		return errs.NewStackError(fmt.Errorf("%w: %d features, %d weights", ErrDimensionMismatch, numRows, len(weights)))
	}

	const eps = 1e-6
	weightSum := floats.Sum(weights)
	var positiveWeight float64
	for i, label := range labels {
		positiveWeight += weights[i] * label
	}
	baseRate := positiveWeight / weightSum
	if baseRate < eps {
		baseRate = eps
	} else if baseRate > 1-eps {
		baseRate = 1 - eps
	}
	obj.prior = math.Log(baseRate / (1 - baseRate))

	scores := make([]float64, numRows)
	for i := range scores {
		scores[i] = obj.prior
	}

	indices := make([]int, numRows)
	for i := range indices {
		indices[i] = i
	}

	grad := make([]float64, numRows)
	hess := make([]float64, numRows)
	obj.trees = make([]*treeNode, 0, obj.options.Rounds)
	for round := 0; round < obj.options.Rounds; round++ {
		for i := 0; i < numRows; i++ {
			p := sigmoid(scores[i])
			grad[i] = labels[i] - p
			hess[i] = p * (1 - p)
		}

		builder := &treeBuilder{
			features:       features,
			grad:           grad,
			hess:           hess,
			weights:        weights,
			maxDepth:       obj.options.MaxDepth,
			minSamplesLeaf: obj.options.MinSamplesLeaf,
		}
		tree := builder.build(indices, 0)
		obj.trees = append(obj.trees, tree)

		for i := 0; i < numRows; i++ {
			scores[i] += obj.options.LearningRate * tree.predict(features[i])
		}
	}
	return nil
}

func (obj *GradientBoosting) PredictProbability(features [][]float64) ([]float64, error) {

	if obj.trees == nil {
		return nil, errs.NewStackError(ErrNotFitted)
	}

	probabilities := make([]float64, len(features))
	for i, row := range features {
		score := obj.prior
		for _, tree := range obj.trees {
			score += obj.options.LearningRate * tree.predict(row)
		}
		probabilities[i] = sigmoid(score)
	}
	return probabilities, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// artifact is the JSON layout of a trained model.
type artifact struct {
	Options      Options     `json:"options"`
	Prior        float64     `json:"prior"`
	FeatureNames []string    `json:"featureNames"`
	Trees        []*treeNode `json:"trees"`
}

func (obj *GradientBoosting) Serialize() ([]byte, error) {
	if obj.trees == nil {
		return nil, errs.NewStackError(ErrNotFitted)
	}
	data, err := json.MarshalIndent(artifact{
		Options:      obj.options,
		Prior:        obj.prior,
		FeatureNames: obj.featureNames,
		Trees:        obj.trees,
	}, "", "    ")
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	return data, nil
}

func Parse(data []byte) (*GradientBoosting, error) {
	var parsed artifact
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errs.NewStackError(err)
	}
	return &GradientBoosting{
		options:      parsed.Options,
		prior:        parsed.Prior,
		trees:        parsed.Trees,
		featureNames: parsed.FeatureNames,
	}, nil
}
