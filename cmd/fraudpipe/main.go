package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/openfraud/fraudpipe/pipeline"
	"github.com/openfraud/fraudpipe/storage"
)

var (
	s3Endpoint  string
	s3Region    string
	s3AuthKey   string
	s3Secret    string
	s3PathStyle bool

	rootCmd = &cobra.Command{
		Use:   "fraudpipe",
		Short: "Batch feature-engineering and scoring pipeline for fraud detection",
		Long: `fraudpipe ingests raw transaction and label CSVs, splits them into
reproducible train/validation parquet tables, frequency-encodes
categorical fields, and trains or scores a boosted-tree classifier on
the resulting dataset.

Paths may be local files or s3://bucket/key objects.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "s3-endpoint", "", "object storage endpoint for s3:// paths")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", "us-east-1", "object storage region")
	rootCmd.PersistentFlags().StringVar(&s3AuthKey, "s3-auth-key", "", "object storage access key")
	rootCmd.PersistentFlags().StringVar(&s3Secret, "s3-auth-secret", "", "object storage secret key")
	rootCmd.PersistentFlags().BoolVar(&s3PathStyle, "s3-path-style", false, "use path-style object addressing")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(encodeCmd())
	rootCmd.AddCommand(datasetCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(predictCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errs.ErrorWithStack(err))
		os.Exit(1)
	}
}

func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	mem := memory.NewGoAllocator()

	store, err := storage.NewStore(cmd.Context(), logger, mem, storeOptionsFromFlags())
	if err != nil {
		return nil, err
	}
	return pipeline.New(logger, mem, store), nil
}

// storeOptionsFromFlags enables object storage when any s3 flag that
// names a target is set. An endpoint without credentials stays valid;
// that is how an unauthenticated local object store is addressed.
func storeOptionsFromFlags() storage.StoreOptions {
	storeOptions := storage.StoreOptions{}
	switch {
	case s3AuthKey != "":
		storeOptions.S3 = storage.NewObjectStorageOptionsFromStaticCredentials(
			s3Endpoint, s3Region, s3AuthKey, s3Secret, s3PathStyle,
		)
	case s3Endpoint != "":
		storeOptions.S3 = &storage.ObjectStorageOptions{
			Endpoint:     s3Endpoint,
			Region:       s3Region,
			UsePathStyle: s3PathStyle,
		}
	}
	return storeOptions
}

func ingestCmd() *cobra.Command {
	options := pipeline.IngestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load raw CSVs, split transactions into train/validation parquet tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			return p.Ingest(cmd.Context(), options)
		},
	}
	cmd.Flags().StringVar(&options.SourceTxnCSV, "source-txn-csv", "", "path to the transactions CSV")
	cmd.Flags().StringVar(&options.DestinationTxnTrain, "destination-txn-train", "", "destination parquet for training transactions")
	cmd.Flags().StringVar(&options.DestinationTxnValidate, "destination-txn-validate", "", "destination parquet for validation transactions")
	cmd.Flags().StringVar(&options.SourceLabelsCSV, "source-labels-csv", "", "path to the labels CSV")
	cmd.Flags().StringVar(&options.DestinationLabels, "destination-labels", "", "destination parquet for labels")
	cmd.Flags().StringVar(&options.SplitSeed, "split-seed", "42fish", "seed string mixed into the split hash")
	cmd.Flags().Float64Var(&options.ValidateFraction, "validate-fraction", 0.3, "fraction of rows for validation in (0,1); at most -0.5 to skip the split")
	_ = cmd.MarkFlagRequired("source-txn-csv")
	_ = cmd.MarkFlagRequired("destination-txn-train")
	_ = cmd.MarkFlagRequired("source-labels-csv")
	_ = cmd.MarkFlagRequired("destination-labels")
	return cmd
}

func encodeCmd() *cobra.Command {
	options := pipeline.EncodeOptions{}
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build the frequency-encoding dictionary for categorical fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			return p.BuildEncoding(cmd.Context(), options)
		},
	}
	cmd.Flags().StringVar(&options.SourceTable, "source-table", "", "source transactions parquet table")
	cmd.Flags().StringSliceVar(&options.CategoricalFields, "categorical-feature", nil, "categorical field to encode (repeatable)")
	cmd.Flags().StringVar(&options.DestinationDictionary, "destination-encoding", "", "destination JSON dictionary path")
	_ = cmd.MarkFlagRequired("source-table")
	_ = cmd.MarkFlagRequired("categorical-feature")
	_ = cmd.MarkFlagRequired("destination-encoding")
	return cmd
}

func datasetCmd() *cobra.Command {
	options := pipeline.DatasetOptions{}
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Assemble the numeric model dataset from transactions, labels and encodings",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			return p.BuildDataset(cmd.Context(), options)
		},
	}
	cmd.Flags().StringVar(&options.SourceTxnsTable, "source-txns", "", "source transactions parquet table")
	cmd.Flags().StringVar(&options.SourceLabelsTable, "source-labels", "", "labels parquet table; omit to mark every row unlabeled (-1)")
	cmd.Flags().StringVar(&options.SourceEncodingDictionary, "source-encoding", "", "frequency-encoding JSON dictionary")
	cmd.Flags().StringVar(&options.DestinationDataset, "destination-dataset", "", "destination parquet dataset")
	_ = cmd.MarkFlagRequired("source-txns")
	_ = cmd.MarkFlagRequired("destination-dataset")
	return cmd
}

func trainCmd() *cobra.Command {
	options := pipeline.TrainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier on a labeled dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			return p.Train(cmd.Context(), options)
		},
	}
	cmd.Flags().StringVar(&options.SourceDataset, "source-dataset", "", "training dataset parquet table")
	cmd.Flags().StringVar(&options.ModelConfig, "model-config", "", "model configuration: v0.0, v0.1, v0.2 or v0.3")
	cmd.Flags().StringVar(&options.DestinationModel, "destination-model", "", "destination JSON model artifact")
	_ = cmd.MarkFlagRequired("source-dataset")
	_ = cmd.MarkFlagRequired("model-config")
	_ = cmd.MarkFlagRequired("destination-model")
	return cmd
}

func predictCmd() *cobra.Command {
	options := pipeline.PredictOptions{}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a dataset with a trained model",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			return p.Predict(cmd.Context(), options)
		},
	}
	cmd.Flags().StringVar(&options.SourceDataset, "source-dataset", "", "dataset parquet table to score")
	cmd.Flags().StringVar(&options.SourceModel, "source-model", "", "trained JSON model artifact")
	cmd.Flags().StringVar(&options.DestinationPredictions, "destination-predictions", "", "destination parquet with eventId and score")
	_ = cmd.MarkFlagRequired("source-dataset")
	_ = cmd.MarkFlagRequired("source-model")
	_ = cmd.MarkFlagRequired("destination-predictions")
	return cmd
}
