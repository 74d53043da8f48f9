package pipeline

import (
	"fmt"

	"github.com/openfraud/fraudpipe/elements"
)

var (
	ErrNoCategoricalFields  = fmt.Errorf("%w: at least one categorical field name is required", elements.ErrConfiguration)
	ErrMissingValidatePath  = fmt.Errorf("%w: a validation destination is required when splitting", elements.ErrConfiguration)
	ErrUnlabeledDataset     = fmt.Errorf("%w: dataset was built without a labels source, cannot train on it", elements.ErrConfiguration)
	ErrLabelValueOutOfRange = fmt.Errorf("%w: label column must hold -1, 0 or 1", elements.ErrSchema)
)
