package relevec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordDefine is called after each GetOrCreate that had to build a schema.
	RecordDefine(duration time.Duration, err error)

	// RecordImport is called after ImportOne (count 1) and ImportAll.
	// imported is the number of schemas registered before a failure, if any.
	RecordImport(count, imported int, duration time.Duration)

	// RecordExport is called after each ExportAll with the number of schemas.
	RecordExport(count int, duration time.Duration)

	// RecordVectorExport is called after each vector export.
	RecordVectorExport(entries int, duration time.Duration)

	// RecordVectorImport is called after each vector import.
	RecordVectorImport(duration time.Duration, err error)

	// RecordSnapshot is called after each archive save with the number of
	// vectors and blob bytes written.
	RecordSnapshot(vectors int, bytes int64, duration time.Duration, err error)

	// RecordRestore is called after each archive load with the number of
	// vectors and blob bytes read.
	RecordRestore(vectors int, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordDefine(time.Duration, error)               {}
func (NoopMetricsCollector) RecordImport(int, int, time.Duration)            {}
func (NoopMetricsCollector) RecordExport(int, time.Duration)                 {}
func (NoopMetricsCollector) RecordVectorExport(int, time.Duration)           {}
func (NoopMetricsCollector) RecordVectorImport(time.Duration, error)         {}
func (NoopMetricsCollector) RecordSnapshot(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRestore(int, int64, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	DefineCount        atomic.Int64
	DefineErrors       atomic.Int64
	ImportCalls        atomic.Int64
	ImportSchemas      atomic.Int64
	ImportFailed       atomic.Int64
	ExportCalls        atomic.Int64
	ExportSchemas      atomic.Int64
	VectorExportCount  atomic.Int64
	VectorExportNanos  atomic.Int64
	VectorImportCount  atomic.Int64
	VectorImportErrors atomic.Int64
	VectorImportNanos  atomic.Int64
	SnapshotCount      atomic.Int64
	SnapshotErrors     atomic.Int64
	SnapshotBytes      atomic.Int64
	RestoreCount       atomic.Int64
	RestoreErrors      atomic.Int64
	RestoreVectors     atomic.Int64
	RestoreBytes       atomic.Int64
}

// RecordDefine implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDefine(_ time.Duration, err error) {
	b.DefineCount.Add(1)
	if err != nil {
		b.DefineErrors.Add(1)
	}
}

// RecordImport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordImport(count, imported int, _ time.Duration) {
	b.ImportCalls.Add(1)
	b.ImportSchemas.Add(int64(imported))
	if imported < count {
		b.ImportFailed.Add(1)
	}
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(count int, _ time.Duration) {
	b.ExportCalls.Add(1)
	b.ExportSchemas.Add(int64(count))
}

// RecordVectorExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVectorExport(_ int, duration time.Duration) {
	b.VectorExportCount.Add(1)
	b.VectorExportNanos.Add(duration.Nanoseconds())
}

// RecordVectorImport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVectorImport(duration time.Duration, err error) {
	b.VectorImportCount.Add(1)
	b.VectorImportNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.VectorImportErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(_ int, bytes int64, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(vectors int, bytes int64, _ time.Duration, err error) {
	b.RestoreCount.Add(1)
	if err != nil {
		b.RestoreErrors.Add(1)
		return
	}
	b.RestoreVectors.Add(int64(vectors))
	b.RestoreBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		DefineCount:          b.DefineCount.Load(),
		DefineErrors:         b.DefineErrors.Load(),
		ImportCalls:          b.ImportCalls.Load(),
		ImportSchemas:        b.ImportSchemas.Load(),
		ImportFailed:         b.ImportFailed.Load(),
		ExportCalls:          b.ExportCalls.Load(),
		ExportSchemas:        b.ExportSchemas.Load(),
		VectorExportCount:    b.VectorExportCount.Load(),
		VectorExportAvgNanos: avg(b.VectorExportNanos.Load(), b.VectorExportCount.Load()),
		VectorImportCount:    b.VectorImportCount.Load(),
		VectorImportErrors:   b.VectorImportErrors.Load(),
		VectorImportAvgNanos: avg(b.VectorImportNanos.Load(), b.VectorImportCount.Load()),
		SnapshotCount:        b.SnapshotCount.Load(),
		SnapshotErrors:       b.SnapshotErrors.Load(),
		SnapshotBytes:        b.SnapshotBytes.Load(),
		RestoreCount:         b.RestoreCount.Load(),
		RestoreErrors:        b.RestoreErrors.Load(),
		RestoreVectors:       b.RestoreVectors.Load(),
		RestoreBytes:         b.RestoreBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	DefineCount          int64
	DefineErrors         int64
	ImportCalls          int64
	ImportSchemas        int64
	ImportFailed         int64
	ExportCalls          int64
	ExportSchemas        int64
	VectorExportCount    int64
	VectorExportAvgNanos int64
	VectorImportCount    int64
	VectorImportErrors   int64
	VectorImportAvgNanos int64
	SnapshotCount        int64
	SnapshotErrors       int64
	SnapshotBytes        int64
	RestoreCount         int64
	RestoreErrors        int64
	RestoreVectors       int64
	RestoreBytes         int64
}
