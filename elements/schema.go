package elements

import (
	"github.com/apache/arrow/go/v17/arrow"
)

// Column names shared across the pipeline stages. The column sets are
// fixed manifests; changing the model's inputs means editing these
// definitions and the dataset assembler together.
const (
	ColumnTransactionTime   = "transactionTime"
	ColumnEventID           = "eventId"
	ColumnAccountNumber     = "accountNumber"
	ColumnMerchantID        = "merchantId"
	ColumnMCC               = "mcc"
	ColumnMerchantCountry   = "merchantCountry"
	ColumnMerchantZip       = "merchantZip"
	ColumnPOSEntryMode      = "posEntryMode"
	ColumnTransactionAmount = "transactionAmount"
	ColumnAvailableCash     = "availableCash"

	ColumnReportedTime = "reportedTime"

	ColumnTxnMonth      = "txn_month"
	ColumnTxnDayOfMonth = "txn_day_of_month"
	ColumnTxnDayOfWeek  = "txn_day_of_week"
	ColumnTxnHour       = "txn_hour"
	ColumnIsFraudFlag   = "is_fraud_flag"

	ColumnScore = "score"
)

// NullCategory is the category label substituted for missing
// categorical values before frequency encoding.
const NullCategory = "NULL"

// Label values written to the is_fraud_flag column.
const (
	LabelUnknown  int32 = -1
	LabelNegative int32 = 0
	LabelPositive int32 = 1
)

// TransactionSchema returns the fixed raw transaction schema read from
// the source CSV and carried through the train/validation parquet files.
func TransactionSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: ColumnTransactionTime, Type: arrow.FixedWidthTypes.Timestamp_s},
			{Name: ColumnEventID, Type: arrow.BinaryTypes.String},
			{Name: ColumnAccountNumber, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: ColumnMerchantID, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: ColumnMCC, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: ColumnMerchantCountry, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: ColumnMerchantZip, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: ColumnPOSEntryMode, Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: ColumnTransactionAmount, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: ColumnAvailableCash, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		},
		nil,
	)
}

// LabelSchema returns the fixed label table schema. Presence of an
// eventId in this table marks the transaction as a positive outcome.
func LabelSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: ColumnReportedTime, Type: arrow.FixedWidthTypes.Timestamp_s},
			{Name: ColumnEventID, Type: arrow.BinaryTypes.String},
		},
		nil,
	)
}

// DatasetSchema returns the model dataset schema: the id column kept as
// a string, one int32 label column and numeric features for everything
// else.
func DatasetSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: ColumnEventID, Type: arrow.BinaryTypes.String},
			{Name: ColumnTxnMonth, Type: arrow.PrimitiveTypes.Int32},
			{Name: ColumnTxnDayOfMonth, Type: arrow.PrimitiveTypes.Int32},
			{Name: ColumnTxnDayOfWeek, Type: arrow.PrimitiveTypes.Int32},
			{Name: ColumnTxnHour, Type: arrow.PrimitiveTypes.Int32},
			{Name: ColumnPOSEntryMode, Type: arrow.PrimitiveTypes.Float64},
			{Name: ColumnTransactionAmount, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: ColumnAvailableCash, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: ColumnIsFraudFlag, Type: arrow.PrimitiveTypes.Int32},
		},
		nil,
	)
}

// PredictionSchema returns the scored output schema.
func PredictionSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: ColumnEventID, Type: arrow.BinaryTypes.String},
			{Name: ColumnScore, Type: arrow.PrimitiveTypes.Float64},
		},
		nil,
	)
}

// DatasetCategoricalColumns lists the dataset manifest columns that are
// string-typed in the raw schema and therefore require a frequency
// encoding before they can appear in the dataset.
func DatasetCategoricalColumns() []string {
	return []string{ColumnPOSEntryMode}
}
