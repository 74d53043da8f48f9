package arrowops

import (
	"bytes"
	"context"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	parquetFileUtils "github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

func WriteRecordToParquetFile(ctx context.Context, record arrow.Record, filePath string) error {

	file, err := os.Create(filePath)
	if err != nil {
		return errs.NewStackError(err)
	}
	defer file.Close()

	parquetWriteProps := parquet.NewWriterProperties(parquet.WithStats(true))
	arrowWriteProps := pqarrow.NewArrowWriterProperties()
	parquetFileWriter, err := pqarrow.NewFileWriter(record.Schema(), file, parquetWriteProps, arrowWriteProps)
	if err != nil {
		return errs.NewStackError(err)
	}
	defer parquetFileWriter.Close()

	if err := parquetFileWriter.Write(record); err != nil {
		return errs.NewStackError(err)
	}
	return nil
}

func RecordToParquetBytes(ctx context.Context, record arrow.Record) ([]byte, error) {

	var buf bytes.Buffer
	parquetWriteProps := parquet.NewWriterProperties(parquet.WithStats(true))
	arrowWriteProps := pqarrow.NewArrowWriterProperties()
	parquetFileWriter, err := pqarrow.NewFileWriter(record.Schema(), &buf, parquetWriteProps, arrowWriteProps)
	if err != nil {
		return nil, errs.NewStackError(err)
	}

	if err := parquetFileWriter.Write(record); err != nil {
		parquetFileWriter.Close()
		return nil, errs.NewStackError(err)
	}
	if err := parquetFileWriter.Close(); err != nil {
		return nil, errs.NewStackError(err)
	}
	return buf.Bytes(), nil
}

// ReadParquetFile reads an entire parquet file into a single record. The
// population is assumed to fit in memory; larger inputs are handled by
// running the pipeline on separate sections of the file.
func ReadParquetFile(ctx context.Context, mem *memory.GoAllocator, filePath string) (arrow.Record, error) {

	parquetFileReader, err := parquetFileUtils.OpenParquetFile(filePath, false)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer parquetFileReader.Close()

	return readAllRows(ctx, mem, parquetFileReader)
}

// RecordFromParquetBytes decodes an in-memory parquet payload, used when
// tables are fetched from object storage.
func RecordFromParquetBytes(ctx context.Context, mem *memory.GoAllocator, data []byte) (arrow.Record, error) {

	parquetFileReader, err := parquetFileUtils.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer parquetFileReader.Close()

	return readAllRows(ctx, mem, parquetFileReader)
}

func readAllRows(ctx context.Context, mem *memory.GoAllocator, parquetFileReader *parquetFileUtils.Reader) (arrow.Record, error) {

	parquetReadProps := pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 1 << 20,
	}
	arrowFileReader, err := pqarrow.NewFileReader(parquetFileReader, parquetReadProps, mem)
	if err != nil {
		return nil, errs.NewStackError(err)
	}

	table, err := arrowFileReader.ReadTable(ctx)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer table.Release()

	if table.NumRows() == 0 {
		schema := table.Schema()
		recBldr := array.NewRecordBuilder(mem, schema)
		defer recBldr.Release()
		return recBldr.NewRecord(), nil
	}

	tableReader := array.NewTableReader(table, table.NumRows())
	defer tableReader.Release()

	if !tableReader.Next() {
		return nil, errs.NewStackError(tableReader.Err())
	}
	record := tableReader.Record()
	record.Retain()
	return record, nil
}
