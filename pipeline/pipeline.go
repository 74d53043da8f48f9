// Package pipeline wires the stages of the fraud feature pipeline into
// one-shot runs: ingest+split, encoding-dictionary build, dataset
// assembly, model training and scoring. Every run reads whole
// populations into memory, derives its outputs and writes them through
// the table store; a failed run writes nothing worth keeping and is
// simply re-run.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"

	"github.com/openfraud/fraudpipe/arrowops"
	"github.com/openfraud/fraudpipe/dataset"
	"github.com/openfraud/fraudpipe/elements"
	"github.com/openfraud/fraudpipe/freqenc"
	"github.com/openfraud/fraudpipe/partition"
	"github.com/openfraud/fraudpipe/storage"
)

type Pipeline struct {
	logger *slog.Logger
	mem    *memory.GoAllocator
	store  storage.ITableStore
}

func New(logger *slog.Logger, mem *memory.GoAllocator, store storage.ITableStore) *Pipeline {
	return &Pipeline{
		logger: logger.With(slog.String("runId", uuid.NewString())),
		mem:    mem,
		store:  store,
	}
}

type IngestOptions struct {
	SourceTxnCSV           string
	DestinationTxnTrain    string
	DestinationTxnValidate string
	SourceLabelsCSV        string
	DestinationLabels      string
	SplitSeed              string
	ValidateFraction       float64
}

// Ingest loads the raw transactions CSV, splits it into train and
// validation parquet tables by seeded hash rank, and normalizes the
// labels CSV into a parquet table.
func (obj *Pipeline) Ingest(ctx context.Context, options IngestOptions) error {

	if err := partition.ValidateFraction(options.ValidateFraction); err != nil {
		return err
	}
	splitting := options.ValidateFraction > -0.5
	if splitting && options.DestinationTxnValidate == "" {
		return errs.NewStackError(ErrMissingValidatePath)
	}

	obj.logger.Info("loading transactions", slog.String("source", options.SourceTxnCSV))
	txns, err := arrowops.ReadCSVFile(ctx, obj.mem, options.SourceTxnCSV, elements.TransactionSchema())
	if err != nil {
		return err
	}
	defer txns.Release()
	obj.logger.Info("transactions loaded", slog.Int64("rows", txns.NumRows()))

	partitioner := partition.NewHashPartitioner(obj.logger, obj.mem, options.SplitSeed)
	split, err := partitioner.Split(txns, options.ValidateFraction)
	if err != nil {
		return err
	}
	defer split.Release()

	if err := obj.store.WriteTable(ctx, split.Train, options.DestinationTxnTrain); err != nil {
		return err
	}
	if split.Validation != nil {
		if err := obj.store.WriteTable(ctx, split.Validation, options.DestinationTxnValidate); err != nil {
			return err
		}
	}

	obj.logger.Info("loading labels", slog.String("source", options.SourceLabelsCSV))
	labels, err := arrowops.ReadCSVFile(ctx, obj.mem, options.SourceLabelsCSV, elements.LabelSchema())
	if err != nil {
		return err
	}
	defer labels.Release()

	if err := obj.store.WriteTable(ctx, labels, options.DestinationLabels); err != nil {
		return err
	}

	obj.logger.Info("ingest complete", slog.Int64("labelRows", labels.NumRows()))
	return nil
}

type EncodeOptions struct {
	SourceTable           string
	CategoricalFields     []string
	DestinationDictionary string
}

// BuildEncoding fits a frequency encoding per categorical field on the
// source population and writes the combined dictionary as JSON.
func (obj *Pipeline) BuildEncoding(ctx context.Context, options EncodeOptions) error {

	if len(options.CategoricalFields) == 0 {
		return errs.NewStackError(ErrNoCategoricalFields)
	}

	record, err := obj.store.ReadTable(ctx, options.SourceTable)
	if err != nil {
		return err
	}
	defer record.Release()

	dictionary := make(freqenc.Dictionary, len(options.CategoricalFields))
	for i, field := range options.CategoricalFields {
		obj.logger.Info(
			"encoding categorical field",
			slog.String("field", field),
			slog.Int("fieldNum", i+1),
			slog.Int("fieldCount", len(options.CategoricalFields)),
		)
		arr, err := arrowops.StringColumn(record, field)
		if err != nil {
			return err
		}
		dictionary[field] = freqenc.Fit(arrowops.StringValues(arr, elements.NullCategory))
	}

	data, err := dictionary.Serialize()
	if err != nil {
		return err
	}
	return obj.store.WriteBlob(ctx, options.DestinationDictionary, data)
}

type DatasetOptions struct {
	SourceTxnsTable          string
	SourceLabelsTable        string
	SourceEncodingDictionary string
	DestinationDataset       string
}

// BuildDataset assembles the numeric model dataset from a transactions
// table, an optional labels table and an optional encoding dictionary.
func (obj *Pipeline) BuildDataset(ctx context.Context, options DatasetOptions) error {

	txns, err := obj.store.ReadTable(ctx, options.SourceTxnsTable)
	if err != nil {
		return err
	}
	defer txns.Release()

	var labels arrow.Record
	if options.SourceLabelsTable != "" {
		labels, err = obj.store.ReadTable(ctx, options.SourceLabelsTable)
		if err != nil {
			return err
		}
		defer labels.Release()
	}

	var dictionary freqenc.Dictionary
	if options.SourceEncodingDictionary != "" {
		data, err := obj.store.ReadBlob(ctx, options.SourceEncodingDictionary)
		if err != nil {
			return err
		}
		dictionary, err = freqenc.Parse(data)
		if err != nil {
			return err
		}
	}

	assembler := dataset.NewAssembler(obj.logger, obj.mem)
	assembled, err := assembler.Assemble(txns, labels, dictionary)
	if err != nil {
		return err
	}
	defer assembled.Release()

	return obj.store.WriteTable(ctx, assembled, options.DestinationDataset)
}
