package partition

import (
	"fmt"

	"github.com/openfraud/fraudpipe/elements"
)

var (
	ErrInvalidFraction     = fmt.Errorf("%w: validate fraction must lie in (0,1) or be at most -0.5", elements.ErrConfiguration)
	ErrMissingIdentifier   = fmt.Errorf("%w: row identifier missing", elements.ErrSchema)
	ErrMissingTimestamp    = fmt.Errorf("%w: row timestamp missing", elements.ErrSchema)
	ErrDuplicateIdentifier = fmt.Errorf("%w: duplicate row identifier", elements.ErrSchema)
)
