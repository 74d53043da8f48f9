package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// TakeRecord builds a new record from the rows of record selected by
// indices, in the given order. Nulls are preserved.
func TakeRecord(mem *memory.GoAllocator, record arrow.Record, indices []int) (arrow.Record, error) {
	record.Retain()
	defer record.Release()

	numRows := int(record.NumRows())
	for _, idx := range indices {
		if idx < 0 || idx >= numRows {
			return nil, errs.NewStackError(fmt.Errorf("%w: row %d of %d", ErrIndexOutOfBounds, idx, numRows))
		}
	}

	takenFields := make([]arrow.Array, record.NumCols())
	for i := 0; i < int(record.NumCols()); i++ {
		takenRows, err := TakeArray(mem, record.Column(i), indices)
		if err != nil {
			for j := 0; j < i; j++ {
				takenFields[j].Release()
			}
			return nil, errs.Wrap(err, fmt.Errorf("column: %s", record.ColumnName(i)))
		}
		takenFields[i] = takenRows
	}
	return array.NewRecord(record.Schema(), takenFields, int64(len(indices))), nil
}

func TakeArray(mem *memory.GoAllocator, arr arrow.Array, indices []int) (arrow.Array, error) {
	switch arr.DataType().ID() {
	case arrow.STRING:
		return takeStringArray(mem, arr.(*array.String), indices), nil
	case arrow.FLOAT64:
		return takeFloat64Array(mem, arr.(*array.Float64), indices), nil
	case arrow.INT32:
		return takeInt32Array(mem, arr.(*array.Int32), indices), nil
	case arrow.TIMESTAMP:
		return takeTimestampArray(mem, arr.(*array.Timestamp), indices)
	default:
		return nil, errs.NewStackError(fmt.Errorf("%w: %s", ErrUnsupportedDataType, arr.DataType().Name()))
	}
}

func takeStringArray(mem *memory.GoAllocator, arr *array.String, indices []int) *array.String {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(len(indices))
	for _, idx := range indices {
		if arr.IsNull(idx) {
			b.AppendNull()
		} else {
			b.Append(arr.Value(idx))
		}
	}
	return b.NewStringArray()
}

func takeFloat64Array(mem *memory.GoAllocator, arr *array.Float64, indices []int) *array.Float64 {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Reserve(len(indices))
	for _, idx := range indices {
		if arr.IsNull(idx) {
			b.AppendNull()
		} else {
			b.Append(arr.Value(idx))
		}
	}
	return b.NewFloat64Array()
}

func takeInt32Array(mem *memory.GoAllocator, arr *array.Int32, indices []int) *array.Int32 {
	b := array.NewInt32Builder(mem)
	defer b.Release()
	b.Reserve(len(indices))
	for _, idx := range indices {
		if arr.IsNull(idx) {
			b.AppendNull()
		} else {
			b.Append(arr.Value(idx))
		}
	}
	return b.NewInt32Array()
}

func takeTimestampArray(mem *memory.GoAllocator, arr *array.Timestamp, indices []int) (arrow.Array, error) {
	dtype, ok := arr.DataType().(*arrow.TimestampType)
	if !ok {
		return nil, errs.NewStackError(ErrUnsupportedDataType)
	}
	b := array.NewTimestampBuilder(mem, dtype)
	defer b.Release()
	b.Reserve(len(indices))
	for _, idx := range indices {
		if arr.IsNull(idx) {
			b.AppendNull()
		} else {
			b.Append(arr.Value(idx))
		}
	}
	return b.NewTimestampArray(), nil
}
