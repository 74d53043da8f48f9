package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"

	"github.com/openfraud/fraudpipe/arrowops"
	"github.com/openfraud/fraudpipe/elements"
	"github.com/openfraud/fraudpipe/model"
)

type TrainOptions struct {
	SourceDataset    string
	ModelConfig      string
	DestinationModel string
}

// Train fits the configured classifier on a labeled dataset and writes
// the JSON model artifact. The feature set is every dataset column
// except the id and the label, in schema order; that order is stored in
// the artifact so scoring rebuilds the matrix identically.
func (obj *Pipeline) Train(ctx context.Context, options TrainOptions) error {

	config := model.Config(options.ModelConfig)
	classifierOptions, err := model.OptionsForConfig(config)
	if err != nil {
		return err
	}

	record, err := obj.store.ReadTable(ctx, options.SourceDataset)
	if err != nil {
		return err
	}
	defer record.Release()
	obj.logger.Info(
		"dataset loaded",
		slog.Int64("rows", record.NumRows()),
		slog.String("modelConfig", options.ModelConfig),
	)

	featureNames, features, err := obj.featureMatrix(record, nil)
	if err != nil {
		return err
	}

	labels, err := obj.labelVector(record)
	if err != nil {
		return err
	}

	var amounts []float64
	if config.NeedsAmounts() {
		amounts, err = arrowops.NumericColumnAsFloat64(record, elements.ColumnTransactionAmount)
		if err != nil {
			return err
		}
	}
	weights, err := model.WeightsForConfig(config, labels, amounts)
	if err != nil {
		return err
	}

	classifier := model.NewGradientBoosting(classifierOptions)
	classifier.SetFeatureNames(featureNames)

	obj.logger.Info("training the model")
	if err := classifier.Fit(features, labels, weights); err != nil {
		return err
	}

	data, err := classifier.Serialize()
	if err != nil {
		return err
	}
	return obj.store.WriteBlob(ctx, options.DestinationModel, data)
}

type PredictOptions struct {
	SourceDataset          string
	SourceModel            string
	DestinationPredictions string
}

// Predict scores a dataset with a trained model and writes an
// eventId + score table, scores in [0,1].
func (obj *Pipeline) Predict(ctx context.Context, options PredictOptions) error {

	record, err := obj.store.ReadTable(ctx, options.SourceDataset)
	if err != nil {
		return err
	}
	defer record.Release()

	data, err := obj.store.ReadBlob(ctx, options.SourceModel)
	if err != nil {
		return err
	}
	classifier, err := model.Parse(data)
	if err != nil {
		return err
	}

	_, features, err := obj.featureMatrix(record, classifier.FeatureNames())
	if err != nil {
		return err
	}

	idArr, err := arrowops.StringColumn(record, elements.ColumnEventID)
	if err != nil {
		return err
	}

	scores, err := classifier.PredictProbability(features)
	if err != nil {
		return err
	}

	recBldr := array.NewRecordBuilder(obj.mem, elements.PredictionSchema())
	defer recBldr.Release()
	idBldr := recBldr.Field(0).(*array.StringBuilder)
	scoreBldr := recBldr.Field(1).(*array.Float64Builder)
	for i, score := range scores {
		idBldr.Append(idArr.Value(i))
		scoreBldr.Append(score)
	}

	predictions := recBldr.NewRecord()
	defer predictions.Release()

	obj.logger.Info("predictions generated", slog.Int("rows", len(scores)))
	return obj.store.WriteTable(ctx, predictions, options.DestinationPredictions)
}

// featureMatrix extracts the numeric feature columns as rows. With a
// nil column list the features are every column except the id and the
// label, in schema order; otherwise exactly the named columns are read,
// failing when one is absent.
func (obj *Pipeline) featureMatrix(record arrow.Record, columns []string) ([]string, [][]float64, error) {

	if columns == nil {
		for _, field := range record.Schema().Fields() {
			if field.Name == elements.ColumnEventID || field.Name == elements.ColumnIsFraudFlag {
				continue
			}
			columns = append(columns, field.Name)
		}
	}

	columnValues := make([][]float64, len(columns))
	for i, column := range columns {
		values, err := arrowops.NumericColumnAsFloat64(record, column)
		if err != nil {
			return nil, nil, err
		}
		columnValues[i] = values
	}

	numRows := int(record.NumRows())
	features := make([][]float64, numRows)
	for row := 0; row < numRows; row++ {
		features[row] = make([]float64, len(columns))
		for col := range columns {
			features[row][col] = columnValues[col][row]
		}
	}
	return columns, features, nil
}

// labelVector reads is_fraud_flag, requiring every row to be labeled:
// -1 means the dataset was produced without a labels source and is not
// trainable.
func (obj *Pipeline) labelVector(record arrow.Record) ([]float64, error) {

	labelArr, err := arrowops.Int32Column(record, elements.ColumnIsFraudFlag)
	if err != nil {
		return nil, err
	}

	labels := make([]float64, labelArr.Len())
	for i := 0; i < labelArr.Len(); i++ {
		switch labelArr.Value(i) {
		case elements.LabelPositive:
			labels[i] = 1
		case elements.LabelNegative:
			labels[i] = 0
		case elements.LabelUnknown:
			return nil, errs.NewStackError(ErrUnlabeledDataset)
		default:
			return nil, errs.NewStackError(fmt.Errorf("%w: got %d", ErrLabelValueOutOfRange, labelArr.Value(i)))
		}
	}
	return labels, nil
}
