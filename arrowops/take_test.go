package arrowops

import (
	"errors"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTakeRecord(mem *memory.GoAllocator) arrow.Record {
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "id", Type: arrow.BinaryTypes.String},
			{Name: "amount", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: "flag", Type: arrow.PrimitiveTypes.Int32},
			{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_s},
		},
		nil,
	)
	recBldr := array.NewRecordBuilder(mem, schema)
	defer recBldr.Release()

	recBldr.Field(0).(*array.StringBuilder).AppendValues([]string{"a", "b", "c", "d"}, nil)
	recBldr.Field(1).(*array.Float64Builder).AppendValues(
		[]float64{1.5, 0, 3.5, 4.5}, []bool{true, false, true, true},
	)
	recBldr.Field(2).(*array.Int32Builder).AppendValues([]int32{10, 20, 30, 40}, nil)
	recBldr.Field(3).(*array.TimestampBuilder).AppendValues(
		[]arrow.Timestamp{100, 200, 300, 400}, nil,
	)
	return recBldr.NewRecord()
}

func TestTakeRecord(t *testing.T) {

	mem := memory.NewGoAllocator()
	record := buildTakeRecord(mem)
	defer record.Release()

	taken, err := TakeRecord(mem, record, []int{3, 1, 1})
	require.NoError(t, err)
	defer taken.Release()

	require.Equal(t, int64(3), taken.NumRows())
	assert.True(t, taken.Schema().Equal(record.Schema()))

	ids := taken.Column(0).(*array.String)
	assert.Equal(t, "d", ids.Value(0))
	assert.Equal(t, "b", ids.Value(1))
	assert.Equal(t, "b", ids.Value(2))

	// the null in row 1 follows the row
	amounts := taken.Column(1).(*array.Float64)
	assert.False(t, amounts.IsNull(0))
	assert.True(t, amounts.IsNull(1))
	assert.True(t, amounts.IsNull(2))

	assert.Equal(t, int32(40), taken.Column(2).(*array.Int32).Value(0))
	assert.Equal(t, arrow.Timestamp(200), taken.Column(3).(*array.Timestamp).Value(1))
}

func TestTakeRecordEmptySelection(t *testing.T) {

	mem := memory.NewGoAllocator()
	record := buildTakeRecord(mem)
	defer record.Release()

	taken, err := TakeRecord(mem, record, nil)
	require.NoError(t, err)
	defer taken.Release()

	assert.Equal(t, int64(0), taken.NumRows())
	assert.True(t, taken.Schema().Equal(record.Schema()))
}

func TestTakeRecordIndexOutOfBounds(t *testing.T) {

	mem := memory.NewGoAllocator()
	record := buildTakeRecord(mem)
	defer record.Release()

	_, err := TakeRecord(mem, record, []int{0, 4})
	assert.True(t, errors.Is(err, ErrIndexOutOfBounds))

	_, err = TakeRecord(mem, record, []int{-1})
	assert.True(t, errors.Is(err, ErrIndexOutOfBounds))
}

func TestTakeArrayUnsupportedType(t *testing.T) {

	mem := memory.NewGoAllocator()
	bldr := array.NewInt64Builder(mem)
	defer bldr.Release()
	bldr.Append(1)
	arr := bldr.NewInt64Array()
	defer arr.Release()

	_, err := TakeArray(mem, arr, []int{0})
	assert.True(t, errors.Is(err, ErrUnsupportedDataType))
}
