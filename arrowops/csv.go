package arrowops

import (
	"context"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ReadCSVFile reads a whole CSV file into a single record using the
// supplied schema. Empty cells become nulls. A cell that cannot be
// converted to its column type, a malformed timestamp included, fails
// the read; rows are never silently dropped.
func ReadCSVFile(ctx context.Context, mem *memory.GoAllocator, filePath string, schema *arrow.Schema) (arrow.Record, error) {

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer file.Close()

	reader := csv.NewReader(
		file, schema,
		csv.WithHeader(true),
		csv.WithNullReader(true, ""),
		csv.WithChunk(-1),
		csv.WithAllocator(mem),
	)
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, errs.NewStackError(reader.Err())
		}
		// header-only file, still schema-valid
		recBldr := array.NewRecordBuilder(mem, schema)
		defer recBldr.Release()
		return recBldr.NewRecord(), nil
	}

	record := reader.Record()
	record.Retain()

	if reader.Err() != nil {
		record.Release()
		return nil, errs.NewStackError(reader.Err())
	}
	return record, nil
}
