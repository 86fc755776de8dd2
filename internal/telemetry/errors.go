package telemetry

import "codeberg.org/veridian/veridianctl/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	ErrSchemaInitFailed  = errors.ErrorCode("telemetry_schema_init_failed")
	ErrSchemaMismatch    = errors.ErrorCode("telemetry_schema_mismatch")
	ErrTransactionFailed = errors.ErrorCode("telemetry_transaction_failed")

	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageClose = errors.ErrShutdownFailed

	ErrInvalidSnapshot = errors.ErrorCode("telemetry_invalid_snapshot")
	ErrRecordFailed    = errors.ErrorCode("telemetry_record_failed")
)
