package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level), recorded
}

func traceFn(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLoggerTraceLogsStatement(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), traceFn("SELECT 1"), nil)

	entries := recorded.FilterMessage("sql trace").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
}

func TestGormLoggerTraceCarriesCorrelationIDs(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Info)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-sql-1")
	ctx, _ = WithTenantID(ctx, zap.NewNop(), "7")
	gl.Trace(ctx, time.Now(), traceFn("SELECT 1"), nil)

	entries := recorded.FilterMessage("sql trace").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-sql-1", fields["request_id"])
	assert.Equal(t, "7", fields["tenant_id"])
}

func TestGormLoggerTraceLogsErrors(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), traceFn("UPDATE invoices"), assert.AnError)

	entries := recorded.FilterMessage("sql error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestGormLoggerSuppressesRecordNotFound(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), traceFn("SELECT * FROM gateway_payments"), gormlogger.ErrRecordNotFound)

	// Natural-key misses are part of the reconciliation flow, not errors.
	assert.Empty(t, recorded.All())
}

func TestGormLoggerFlagsSlowQueries(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Warn)
	gl.SlowThreshold = time.Nanosecond

	gl.Trace(context.Background(), time.Now().Add(-time.Millisecond), traceFn("SELECT pg_sleep(1)"), nil)

	entries := recorded.FilterMessage("slow query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestGormLoggerSilentLogsNothing(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), traceFn("SELECT 1"), assert.AnError)
	gl.Info(context.Background(), "hello")

	assert.Empty(t, recorded.All())
}

func TestGormLoggerLogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Warn)

	louder := gl.LogMode(gormlogger.Info)
	require.NotNil(t, louder)
	// The original keeps its level.
	assert.Equal(t, gormlogger.Warn, gl.level)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapGormLogLevel(tt.level), tt.level)
	}
}
