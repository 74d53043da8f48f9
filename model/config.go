package model

import (
	"fmt"
	"math"

	"github.com/alekLukanen/errs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config names one of the small, fixed set of supported model
// configurations. There is deliberately no free-form hyperparameter
// surface.
type Config string

const (
	// ConfigV00 is a deliberately weak model, useful as a floor when
	// comparing runs.
	ConfigV00 Config = "v0.0"
	// ConfigV01 is the default configuration.
	ConfigV01 Config = "v0.1"
	// ConfigV02 up-weights positive rows by the inverse target rate.
	ConfigV02 Config = "v0.2"
	// ConfigV03 additionally scales positive-row weights by the row's
	// transaction amount relative to the population maximum.
	ConfigV03 Config = "v0.3"
)

func OptionsForConfig(config Config) (Options, error) {
	switch config {
	case ConfigV00:
		options := DefaultOptions()
		options.Rounds = 2
		return options, nil
	case ConfigV01, ConfigV02, ConfigV03:
		return DefaultOptions(), nil
	default:
		return Options{}, errs.NewStackError(fmt.Errorf("%w: %q", ErrUnknownConfig, config))
	}
}

// NeedsAmounts reports whether the config derives row weights from the
// transaction amount column.
func (obj Config) NeedsAmounts() bool {
	return obj == ConfigV03
}

// WeightsForConfig builds per-row fit weights. labels are 0/1; amounts
// is only consulted for configs that weight by transaction amount and
// may be nil otherwise.
func WeightsForConfig(config Config, labels []float64, amounts []float64) ([]float64, error) {
	switch config {
	case ConfigV00, ConfigV01:
		return nil, nil
	case ConfigV02:
		if len(labels) == 0 {
			return nil, errs.NewStackError(ErrEmptyDataset)
		}
		targetRate := stat.Mean(labels, nil)
		if targetRate == 0 {
			return nil, errs.NewStackError(ErrNoPositiveLabels)
		}
		weights := make([]float64, len(labels))
		for i, label := range labels {
			weights[i] = math.Abs(label*(1/targetRate) + (1 - label))
		}
		return weights, nil
	case ConfigV03:
		if len(labels) == 0 {
			return nil, errs.NewStackError(ErrEmptyDataset)
		}
		targetRate := stat.Mean(labels, nil)
		if targetRate == 0 {
			return nil, errs.NewStackError(ErrNoPositiveLabels)
		}
		if len(amounts) != len(labels) {
			return nil, errs.NewStackError(fmt.Errorf(
				"%w: %d labels, %d amounts", ErrDimensionMismatch, len(labels), len(amounts),
			))
		}
		maxAmount := floats.Max(amounts)
		weights := make([]float64, len(labels))
		for i, label := range labels {
			weights[i] = math.Abs(label*(1/targetRate)*(amounts[i]/maxAmount) + (1 - label))
		}
		return weights, nil
	default:
		return nil, errs.NewStackError(fmt.Errorf("%w: %q", ErrUnknownConfig, config))
	}
}
