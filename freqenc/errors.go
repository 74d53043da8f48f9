package freqenc

import (
	"fmt"

	"github.com/openfraud/fraudpipe/elements"
)

var (
	ErrUnseenCategory       = fmt.Errorf("%w: category value not present in encoding", elements.ErrSchema)
	ErrMissingFieldEncoding = fmt.Errorf("%w: no encoding for field", elements.ErrConfiguration)
	ErrEncodingOutOfRange   = fmt.Errorf("%w: encoded value outside (0,1]", elements.ErrSchema)
)
