package arrowops

import (
	"fmt"
	"math"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

func FieldIndex(record arrow.Record, column string) (int, error) {
	columnIdxs := record.Schema().FieldIndices(column)
	if len(columnIdxs) == 0 {
		return 0, errs.NewStackError(fmt.Errorf("%w: %s", ErrColumnNotFound, column))
	}
	return columnIdxs[0], nil
}

func StringColumn(record arrow.Record, column string) (*array.String, error) {
	columnIdx, err := FieldIndex(record, column)
	if err != nil {
		return nil, err
	}
	arr, ok := record.Column(columnIdx).(*array.String)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf(
			"%w: column %s is %s, expected string",
			ErrUnsupportedDataType, column, record.Column(columnIdx).DataType().Name(),
		))
	}
	return arr, nil
}

func Float64Column(record arrow.Record, column string) (*array.Float64, error) {
	columnIdx, err := FieldIndex(record, column)
	if err != nil {
		return nil, err
	}
	arr, ok := record.Column(columnIdx).(*array.Float64)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf(
			"%w: column %s is %s, expected float64",
			ErrUnsupportedDataType, column, record.Column(columnIdx).DataType().Name(),
		))
	}
	return arr, nil
}

func Int32Column(record arrow.Record, column string) (*array.Int32, error) {
	columnIdx, err := FieldIndex(record, column)
	if err != nil {
		return nil, err
	}
	arr, ok := record.Column(columnIdx).(*array.Int32)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf(
			"%w: column %s is %s, expected int32",
			ErrUnsupportedDataType, column, record.Column(columnIdx).DataType().Name(),
		))
	}
	return arr, nil
}

func TimestampColumn(record arrow.Record, column string) (*array.Timestamp, error) {
	columnIdx, err := FieldIndex(record, column)
	if err != nil {
		return nil, err
	}
	arr, ok := record.Column(columnIdx).(*array.Timestamp)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf(
			"%w: column %s is %s, expected timestamp",
			ErrUnsupportedDataType, column, record.Column(columnIdx).DataType().Name(),
		))
	}
	return arr, nil
}

// StringValues copies a string column into a plain slice, substituting
// nullLabel for null entries.
func StringValues(arr *array.String, nullLabel string) []string {
	values := make([]string, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			values[i] = nullLabel
		} else {
			values[i] = arr.Value(i)
		}
	}
	return values
}

// NumericColumnAsFloat64 reads an int32 or float64 column into a float64
// slice. Nulls become NaN so downstream consumers can decide how to
// treat them.
func NumericColumnAsFloat64(record arrow.Record, column string) ([]float64, error) {
	columnIdx, err := FieldIndex(record, column)
	if err != nil {
		return nil, err
	}

	switch arr := record.Column(columnIdx).(type) {
	case *array.Float64:
		values := make([]float64, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				values[i] = math.NaN()
			} else {
				values[i] = arr.Value(i)
			}
		}
		return values, nil
	case *array.Int32:
		values := make([]float64, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				values[i] = math.NaN()
			} else {
				values[i] = float64(arr.Value(i))
			}
		}
		return values, nil
	default:
		return nil, errs.NewStackError(fmt.Errorf(
			"%w: column %s is %s, expected int32 or float64",
			ErrUnsupportedDataType, column, record.Column(columnIdx).DataType().Name(),
		))
	}
}
