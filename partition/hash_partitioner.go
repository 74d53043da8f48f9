package partition

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sort"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/openfraud/fraudpipe/arrowops"
	"github.com/openfraud/fraudpipe/elements"
)

// noSplitThreshold: any fraction at or below this value requests
// "no split", emitting the full population as training output.
const noSplitThreshold = -0.5

// NoSplitFraction is the canonical sentinel callers pass to skip the
// validation split.
const NoSplitFraction = -1.0

// timestampTextLayout is the canonical rendering of a row timestamp
// used in the hash key. Only internal consistency matters for the
// split to be reproducible, so the layout is fixed here.
const timestampTextLayout = "2006-01-02 15:04:05"

// Split holds the two disjoint subsets of a partitioned population.
// Validation is nil when the no-split sentinel was requested.
type Split struct {
	Train      arrow.Record
	Validation arrow.Record
}

func (obj Split) Release() {
	if obj.Train != nil {
		obj.Train.Release()
	}
	if obj.Validation != nil {
		obj.Validation.Release()
	}
}

// HashPartitioner assigns every row a dense rank from a seeded 64-bit
// hash of (timestamp text, identifier, seed) and carves the population
// into validation (rank <= floor(N*f)) and training (the rest). The
// assignment depends only on row content and the seed, never on row
// order or the execution engine.
type HashPartitioner struct {
	logger *slog.Logger
	mem    *memory.GoAllocator

	seed string
}

func NewHashPartitioner(logger *slog.Logger, mem *memory.GoAllocator, seed string) *HashPartitioner {
	return &HashPartitioner{
		logger: logger,
		mem:    mem,
		seed:   seed,
	}
}

// ValidateFraction rejects fractions that neither request a split
// (strictly between 0 and 1) nor the no-split sentinel (at most -0.5).
// Callers check this before touching any input so configuration errors
// surface before work starts.
func ValidateFraction(validateFraction float64) error {
	if validateFraction <= noSplitThreshold {
		return nil
	}
	if validateFraction <= 0.0 || validateFraction >= 1.0 {
		return errs.NewStackError(fmt.Errorf("%w: got %f", ErrInvalidFraction, validateFraction))
	}
	return nil
}

// Split partitions the population. validateFraction must lie strictly
// between 0 and 1, or be at most -0.5 to request training output only.
// Any other value is a configuration error and nothing is produced.
func (obj *HashPartitioner) Split(record arrow.Record, validateFraction float64) (Split, error) {

	if err := ValidateFraction(validateFraction); err != nil {
		return Split{}, err
	}

	// rows are validated (ids present and unique, timestamps present)
	// even when no split was requested
	ranked, err := obj.rankRows(record)
	if err != nil {
		return Split{}, err
	}

	if validateFraction <= noSplitThreshold {
		obj.logger.Info(
			"no-split sentinel requested, emitting training output only",
			slog.Int64("rows", record.NumRows()),
		)
		record.Retain()
		return Split{Train: record}, nil
	}

	numRows := int(record.NumRows())
	validateCount := int(math.Floor(float64(numRows) * validateFraction))

	validateIdxs := make([]int, 0, validateCount)
	trainIdxs := make([]int, 0, numRows-validateCount)
	for rank, row := range ranked {
		if rank < validateCount {
			validateIdxs = append(validateIdxs, row.idx)
		} else {
			trainIdxs = append(trainIdxs, row.idx)
		}
	}
	// keep the subsets in original row order
	sort.Ints(validateIdxs)
	sort.Ints(trainIdxs)

	validateRec, err := arrowops.TakeRecord(obj.mem, record, validateIdxs)
	if err != nil {
		return Split{}, err
	}
	trainRec, err := arrowops.TakeRecord(obj.mem, record, trainIdxs)
	if err != nil {
		validateRec.Release()
		return Split{}, err
	}

	obj.logger.Info(
		"population partitioned",
		slog.Int("trainRows", len(trainIdxs)),
		slog.Int("validateRows", len(validateIdxs)),
	)
	return Split{Train: trainRec, Validation: validateRec}, nil
}

type rankedRow struct {
	hash uint64
	idx  int
}

// rankRows computes the seeded hash for every row and returns the rows
// ordered by ascending hash. Equal hashes fall back to the original row
// position so the order stays total and deterministic.
func (obj *HashPartitioner) rankRows(record arrow.Record) ([]rankedRow, error) {

	tsArr, err := arrowops.TimestampColumn(record, elements.ColumnTransactionTime)
	if err != nil {
		return nil, err
	}
	idArr, err := arrowops.StringColumn(record, elements.ColumnEventID)
	if err != nil {
		return nil, err
	}

	tsType, ok := tsArr.DataType().(*arrow.TimestampType)
	if !ok {
		return nil, errs.NewStackError(arrowops.ErrUnsupportedDataType)
	}

	numRows := int(record.NumRows())
	seenIds := make(map[string]struct{}, numRows)
	ranked := make([]rankedRow, numRows)
	for i := 0; i < numRows; i++ {
		if idArr.IsNull(i) || idArr.Value(i) == "" {
			return nil, errs.NewStackError(fmt.Errorf("%w: row %d", ErrMissingIdentifier, i))
		}
		if tsArr.IsNull(i) {
			return nil, errs.NewStackError(fmt.Errorf("%w: row %d (%s)", ErrMissingTimestamp, i, idArr.Value(i)))
		}

		id := idArr.Value(i)
		if _, found := seenIds[id]; found {
			return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrDuplicateIdentifier, id))
		}
		seenIds[id] = struct{}{}

		tsText := tsArr.Value(i).ToTime(tsType.Unit).UTC().Format(timestampTextLayout)

		hasher := fnv.New64a()
		hasher.Write([]byte(tsText))
		hasher.Write([]byte(id))
		hasher.Write([]byte(obj.seed))
		ranked[i] = rankedRow{hash: hasher.Sum64(), idx: i}
	}

	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].hash != ranked[b].hash {
			return ranked[a].hash < ranked[b].hash
		}
		return ranked[a].idx < ranked[b].idx
	})
	return ranked, nil
}
