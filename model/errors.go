package model

import (
	"fmt"

	"github.com/openfraud/fraudpipe/elements"
)

var (
	ErrUnknownConfig     = fmt.Errorf("%w: model config not supported", elements.ErrConfiguration)
	ErrEmptyDataset      = fmt.Errorf("%w: no rows to fit on", elements.ErrSchema)
	ErrDimensionMismatch = fmt.Errorf("%w: feature, label and weight lengths disagree", elements.ErrSchema)
	ErrNoPositiveLabels  = fmt.Errorf("%w: weighting requires at least one positive label", elements.ErrSchema)
	ErrNotFitted         = fmt.Errorf("%w: classifier has not been fitted", elements.ErrConfiguration)
)
