// Package dataset turns raw transaction populations into the numeric
// model dataset: calendar features derived from the transaction
// timestamp, categorical fields replaced by their frequency encodings,
// and one label column joined in from the optional labels population.
package dataset

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/openfraud/fraudpipe/arrowops"
	"github.com/openfraud/fraudpipe/elements"
	"github.com/openfraud/fraudpipe/freqenc"
)

type Assembler struct {
	logger *slog.Logger
	mem    *memory.GoAllocator
}

func NewAssembler(logger *slog.Logger, mem *memory.GoAllocator) *Assembler {
	return &Assembler{
		logger: logger,
		mem:    mem,
	}
}

// Assemble produces one dataset row per transaction. labels may be nil,
// in which case every row's label is -1 (no label source); with labels
// present the label is 1 when the transaction's eventId appears in the
// labels population and 0 otherwise, a left join that never drops
// transactions. dictionary may be nil only when it is never needed;
// every string-typed dataset column must have an encoding or the
// assembly fails before any output exists. An empty transaction
// population yields an empty, schema-valid record.
func (obj *Assembler) Assemble(txns arrow.Record, labels arrow.Record, dictionary freqenc.Dictionary) (arrow.Record, error) {

	idArr, err := obj.sourceStringColumn(txns, elements.ColumnEventID)
	if err != nil {
		return nil, err
	}
	tsArr, err := obj.sourceTimestampColumn(txns, elements.ColumnTransactionTime)
	if err != nil {
		return nil, err
	}
	amountArr, err := obj.sourceFloat64Column(txns, elements.ColumnTransactionAmount)
	if err != nil {
		return nil, err
	}
	cashArr, err := obj.sourceFloat64Column(txns, elements.ColumnAvailableCash)
	if err != nil {
		return nil, err
	}

	encodedCategoricals, err := obj.encodeCategoricals(txns, dictionary)
	if err != nil {
		return nil, err
	}

	labeled, err := obj.labelSet(labels)
	if err != nil {
		return nil, err
	}

	tsType := tsArr.DataType().(*arrow.TimestampType)
	numRows := int(txns.NumRows())

	recBldr := array.NewRecordBuilder(obj.mem, elements.DatasetSchema())
	defer recBldr.Release()

	idBldr := recBldr.Field(0).(*array.StringBuilder)
	monthBldr := recBldr.Field(1).(*array.Int32Builder)
	dayOfMonthBldr := recBldr.Field(2).(*array.Int32Builder)
	dayOfWeekBldr := recBldr.Field(3).(*array.Int32Builder)
	hourBldr := recBldr.Field(4).(*array.Int32Builder)
	posEntryModeBldr := recBldr.Field(5).(*array.Float64Builder)
	amountBldr := recBldr.Field(6).(*array.Float64Builder)
	cashBldr := recBldr.Field(7).(*array.Float64Builder)
	labelBldr := recBldr.Field(8).(*array.Int32Builder)

	for i := 0; i < numRows; i++ {
		id := idArr.Value(i)
		idBldr.Append(id)

		if tsArr.IsNull(i) {
			return nil, errs.NewStackError(fmt.Errorf("%w: row %d (%s)", ErrMissingTimestamp, i, id))
		}
		// timestamps are UTC-naive by contract, no timezone conversion
		ts := tsArr.Value(i).ToTime(tsType.Unit).UTC()
		monthBldr.Append(int32(ts.Month()))
		dayOfMonthBldr.Append(int32(ts.Day()))
		dayOfWeekBldr.Append(int32(ts.Weekday()))
		hourBldr.Append(int32(ts.Hour()))

		posEntryModeBldr.Append(encodedCategoricals[elements.ColumnPOSEntryMode][i])

		if amountArr.IsNull(i) {
			amountBldr.AppendNull()
		} else {
			amountBldr.Append(amountArr.Value(i))
		}
		if cashArr.IsNull(i) {
			cashBldr.AppendNull()
		} else {
			cashBldr.Append(cashArr.Value(i))
		}

		switch {
		case labeled == nil:
			labelBldr.Append(elements.LabelUnknown)
		default:
			if _, found := labeled[id]; found {
				labelBldr.Append(elements.LabelPositive)
			} else {
				labelBldr.Append(elements.LabelNegative)
			}
		}
	}

	record := recBldr.NewRecord()
	obj.logger.Info(
		"dataset assembled",
		slog.Int("rows", numRows),
		slog.Bool("labelsProvided", labeled != nil),
	)
	return record, nil
}

// encodeCategoricals maps every string-typed dataset column through the
// encoding dictionary. The column set is the fixed manifest in
// elements, not user-configurable, so schema drift shows up here as a
// compile-time edit rather than a runtime surprise.
func (obj *Assembler) encodeCategoricals(txns arrow.Record, dictionary freqenc.Dictionary) (map[string][]float64, error) {

	encoded := make(map[string][]float64, 1)
	for _, field := range elements.DatasetCategoricalColumns() {
		arr, err := obj.sourceStringColumn(txns, field)
		if err != nil {
			return nil, err
		}
		if dictionary == nil {
			return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrMissingEncoding, field))
		}
		if _, found := dictionary[field]; !found {
			return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrMissingEncoding, field))
		}

		values := arrowops.StringValues(arr, elements.NullCategory)
		mapped, err := dictionary.Apply(field, values)
		if err != nil {
			return nil, err
		}
		encoded[field] = mapped
	}
	return encoded, nil
}

func (obj *Assembler) labelSet(labels arrow.Record) (map[string]struct{}, error) {
	if labels == nil {
		return nil, nil
	}

	idArr, err := obj.sourceStringColumn(labels, elements.ColumnEventID)
	if err != nil {
		return nil, err
	}

	labeled := make(map[string]struct{}, idArr.Len())
	for i := 0; i < idArr.Len(); i++ {
		if idArr.IsNull(i) {
			continue
		}
		labeled[idArr.Value(i)] = struct{}{}
	}
	return labeled, nil
}

func (obj *Assembler) sourceStringColumn(record arrow.Record, column string) (*array.String, error) {
	arr, err := arrowops.StringColumn(record, column)
	if errors.Is(err, arrowops.ErrColumnNotFound) {
		return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrMissingColumn, column))
	}
	return arr, err
}

func (obj *Assembler) sourceFloat64Column(record arrow.Record, column string) (*array.Float64, error) {
	arr, err := arrowops.Float64Column(record, column)
	if errors.Is(err, arrowops.ErrColumnNotFound) {
		return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrMissingColumn, column))
	}
	return arr, err
}

func (obj *Assembler) sourceTimestampColumn(record arrow.Record, column string) (*array.Timestamp, error) {
	arr, err := arrowops.TimestampColumn(record, column)
	if errors.Is(err, arrowops.ErrColumnNotFound) {
		return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrMissingColumn, column))
	}
	return arr, err
}
