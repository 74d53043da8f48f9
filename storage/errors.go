package storage

import (
	"fmt"

	"github.com/openfraud/fraudpipe/elements"
)

var (
	ErrInvalidObjectPath          = fmt.Errorf("%w: object path must look like s3://bucket/key", elements.ErrConfiguration)
	ErrObjectStorageNotConfigured = fmt.Errorf("%w: s3 path given but object storage is not configured", elements.ErrConfiguration)
)
