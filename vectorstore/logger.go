package vectorstore

import "log/slog"

// DriverLog returns a logger scoped to one driver instance and table,
// used for the non-fatal warnings drivers log: vector reshaping in
// ShapeVector and the milvus driver's flush failures. Benign
// provisioning conflicts are treated as success without a log line.
func DriverLog(driver, table string) *slog.Logger {
	return slog.Default().With("driver", driver, "table", table)
}
