package elements

import "errors"

var (
	// ErrConfiguration covers invalid run parameters: bad split fractions,
	// unknown model configurations, missing encoding sources. Reported
	// before any output is written.
	ErrConfiguration = errors.New("configuration invalid")

	// ErrSchema covers data that contradicts the fixed schemas: missing
	// columns, unseen categorical values, id collisions. Always fatal and
	// never produces partial output.
	ErrSchema = errors.New("schema invalid")
)
