package dataset

import (
	"fmt"

	"github.com/openfraud/fraudpipe/elements"
)

var (
	ErrMissingColumn    = fmt.Errorf("%w: required source column missing", elements.ErrSchema)
	ErrMissingTimestamp = fmt.Errorf("%w: row timestamp missing", elements.ErrSchema)
	ErrMissingEncoding  = fmt.Errorf("%w: categorical field has no encoding dictionary", elements.ErrConfiguration)
)
