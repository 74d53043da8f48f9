package dataset

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfraud/fraudpipe/elements"
	"github.com/openfraud/fraudpipe/freqenc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type txnRow struct {
	id           string
	ts           time.Time
	posEntryMode *string
	amount       float64
	cash         float64
}

func strPtr(s string) *string { return &s }

func buildTxns(mem *memory.GoAllocator, rows []txnRow) arrow.Record {
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: elements.ColumnTransactionTime, Type: arrow.FixedWidthTypes.Timestamp_s},
			{Name: elements.ColumnEventID, Type: arrow.BinaryTypes.String},
			{Name: elements.ColumnPOSEntryMode, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: elements.ColumnTransactionAmount, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: elements.ColumnAvailableCash, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		},
		nil,
	)
	recBldr := array.NewRecordBuilder(mem, schema)
	defer recBldr.Release()

	for _, row := range rows {
		recBldr.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(row.ts.Unix()))
		recBldr.Field(1).(*array.StringBuilder).Append(row.id)
		if row.posEntryMode == nil {
			recBldr.Field(2).(*array.StringBuilder).AppendNull()
		} else {
			recBldr.Field(2).(*array.StringBuilder).Append(*row.posEntryMode)
		}
		recBldr.Field(3).(*array.Float64Builder).Append(row.amount)
		recBldr.Field(4).(*array.Float64Builder).Append(row.cash)
	}
	return recBldr.NewRecord()
}

func buildLabels(mem *memory.GoAllocator, ids []string) arrow.Record {
	recBldr := array.NewRecordBuilder(mem, elements.LabelSchema())
	defer recBldr.Release()
	for i, id := range ids {
		recBldr.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(1500000000 + int64(i)))
		recBldr.Field(1).(*array.StringBuilder).Append(id)
	}
	return recBldr.NewRecord()
}

func testDictionary() freqenc.Dictionary {
	return freqenc.Dictionary{
		elements.ColumnPOSEntryMode: freqenc.Fit([]string{"81", "81", "05", elements.NullCategory}),
	}
}

func labelColumn(t *testing.T, record arrow.Record) []int32 {
	t.Helper()
	idx := record.Schema().FieldIndices(elements.ColumnIsFraudFlag)
	require.Len(t, idx, 1)
	arr := record.Column(idx[0]).(*array.Int32)
	values := make([]int32, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		values[i] = arr.Value(i)
	}
	return values
}

func TestAssembleLabelSemantics(t *testing.T) {

	mem := memory.NewGoAllocator()
	assembler := NewAssembler(testLogger(), mem)

	ts := time.Date(2017, 3, 15, 13, 45, 12, 0, time.UTC)
	txns := buildTxns(mem, []txnRow{
		{id: "evt-a", ts: ts, posEntryMode: strPtr("81"), amount: 12.5, cash: 100},
		{id: "evt-b", ts: ts, posEntryMode: strPtr("81"), amount: 9.0, cash: 50},
		{id: "evt-c", ts: ts, posEntryMode: strPtr("05"), amount: 3.2, cash: 75},
	})
	defer txns.Release()

	// no labels source: every row is unknown
	unlabeled, err := assembler.Assemble(txns, nil, testDictionary())
	require.NoError(t, err)
	defer unlabeled.Release()
	assert.Equal(t, []int32{-1, -1, -1}, labelColumn(t, unlabeled))

	// one labeled id out of three: left join keeps all rows
	labels := buildLabels(mem, []string{"evt-a"})
	defer labels.Release()

	labeled, err := assembler.Assemble(txns, labels, testDictionary())
	require.NoError(t, err)
	defer labeled.Release()
	assert.Equal(t, []int32{1, 0, 0}, labelColumn(t, labeled))
}

func TestAssembleCalendarAndNumericFeatures(t *testing.T) {

	mem := memory.NewGoAllocator()
	assembler := NewAssembler(testLogger(), mem)

	// 2017-03-15 was a Wednesday
	ts := time.Date(2017, 3, 15, 13, 45, 12, 0, time.UTC)
	txns := buildTxns(mem, []txnRow{
		{id: "evt-a", ts: ts, posEntryMode: strPtr("05"), amount: 12.5, cash: 100},
	})
	defer txns.Release()

	record, err := assembler.Assemble(txns, nil, testDictionary())
	require.NoError(t, err)
	defer record.Release()

	require.True(t, record.Schema().Equal(elements.DatasetSchema()))
	require.Equal(t, int64(1), record.NumRows())

	assert.Equal(t, "evt-a", record.Column(0).(*array.String).Value(0))
	assert.Equal(t, int32(3), record.Column(1).(*array.Int32).Value(0))
	assert.Equal(t, int32(15), record.Column(2).(*array.Int32).Value(0))
	assert.Equal(t, int32(3), record.Column(3).(*array.Int32).Value(0))
	assert.Equal(t, int32(13), record.Column(4).(*array.Int32).Value(0))
	// "05" is the second most frequent of {81: 2, 05: 1, NULL: 1} after
	// the lexical tie-break with NULL
	assert.InDelta(t, 0.75, record.Column(5).(*array.Float64).Value(0), 1e-9)
	assert.InDelta(t, 12.5, record.Column(6).(*array.Float64).Value(0), 1e-9)
	assert.InDelta(t, 100.0, record.Column(7).(*array.Float64).Value(0), 1e-9)
}

func TestAssembleNullCategoricalUsesNullLabel(t *testing.T) {

	mem := memory.NewGoAllocator()
	assembler := NewAssembler(testLogger(), mem)

	ts := time.Date(2017, 3, 15, 13, 45, 12, 0, time.UTC)
	txns := buildTxns(mem, []txnRow{
		{id: "evt-a", ts: ts, posEntryMode: nil, amount: 1, cash: 1},
	})
	defer txns.Release()

	record, err := assembler.Assemble(txns, nil, testDictionary())
	require.NoError(t, err)
	defer record.Release()

	dictionary := testDictionary()
	assert.InDelta(
		t,
		dictionary[elements.ColumnPOSEntryMode][elements.NullCategory],
		record.Column(5).(*array.Float64).Value(0),
		1e-9,
	)
}

func TestAssembleEncodingFailures(t *testing.T) {

	mem := memory.NewGoAllocator()
	assembler := NewAssembler(testLogger(), mem)

	ts := time.Date(2017, 3, 15, 13, 45, 12, 0, time.UTC)
	txns := buildTxns(mem, []txnRow{
		{id: "evt-a", ts: ts, posEntryMode: strPtr("81"), amount: 1, cash: 1},
	})
	defer txns.Release()

	// no dictionary at all
	_, err := assembler.Assemble(txns, nil, nil)
	assert.True(t, errors.Is(err, ErrMissingEncoding))
	assert.True(t, errors.Is(err, elements.ErrConfiguration))

	// dictionary without the categorical field
	_, err = assembler.Assemble(txns, nil, freqenc.Dictionary{"merchantZip": freqenc.Fit([]string{"a"})})
	assert.True(t, errors.Is(err, ErrMissingEncoding))

	// dictionary that has never seen the value
	unseen := freqenc.Dictionary{elements.ColumnPOSEntryMode: freqenc.Fit([]string{"05"})}
	_, err = assembler.Assemble(txns, nil, unseen)
	assert.True(t, errors.Is(err, freqenc.ErrUnseenCategory))
	assert.True(t, errors.Is(err, elements.ErrSchema))
}

func TestAssembleMissingColumn(t *testing.T) {

	mem := memory.NewGoAllocator()
	assembler := NewAssembler(testLogger(), mem)

	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: elements.ColumnEventID, Type: arrow.BinaryTypes.String},
		},
		nil,
	)
	recBldr := array.NewRecordBuilder(mem, schema)
	recBldr.Field(0).(*array.StringBuilder).Append("evt-a")
	record := recBldr.NewRecord()
	recBldr.Release()
	defer record.Release()

	_, err := assembler.Assemble(record, nil, testDictionary())
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.True(t, errors.Is(err, elements.ErrSchema))
}

func TestAssembleEmptyPopulation(t *testing.T) {

	mem := memory.NewGoAllocator()
	assembler := NewAssembler(testLogger(), mem)

	txns := buildTxns(mem, nil)
	defer txns.Release()

	record, err := assembler.Assemble(txns, nil, testDictionary())
	require.NoError(t, err)
	defer record.Release()

	assert.Equal(t, int64(0), record.NumRows())
	assert.True(t, record.Schema().Equal(elements.DatasetSchema()))
}
