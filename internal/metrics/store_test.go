package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"ai-life-planner/internal/database"
	"ai-life-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)

	store := NewStore(db.SQL)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndDailyUsage(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Record(ExecutionMetric{AgentName: "LifePlanner", Model: "m", PromptTokens: 100, CompletionTokens: 50, Timestamp: now}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "LifePlanner", Model: "m", PromptTokens: 10, CompletionTokens: 5, Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "LifePlanner", Model: "m", PromptTokens: 1, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -1)}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "LifePlanner", Model: "m", PromptTokens: 999, Timestamp: now.AddDate(0, 0, -30)}))

	usage, err := store.GetDailyUsage(7)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, DailyUsage{Date: "2026-03-10", TotalPrompt: 110, TotalCompletion: 55, TotalExecution: 2}, usage[0])
	assert.Equal(t, DailyUsage{Date: "2026-03-09", TotalPrompt: 1, TotalCompletion: 1, TotalExecution: 1}, usage[1])
}

func TestRecordMeta(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordMeta(shared.AgentMeta{AgentName: "LifePlanner"}))
	usage, err := store.GetDailyUsage(1)
	require.NoError(t, err)
	assert.Empty(t, usage, "executions without usage are not stored")

	require.NoError(t, store.RecordMeta(shared.AgentMeta{
		AgentName: "LifePlanner",
		Usage:     shared.TokenUsage{PromptTokens: 40, CompletionTokens: 2, Model: "gemini-test"},
		Latency:   1500 * time.Millisecond,
	}))
	usage, err = store.GetDailyUsage(1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 42, usage[0].TotalPrompt+usage[0].TotalCompletion)
}

func TestCleanup(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.Record(ExecutionMetric{AgentName: "a", Timestamp: now.AddDate(0, 0, -40)}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "a", Timestamp: now.AddDate(0, 0, -31)}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "a", Timestamp: now}))

	deleted, err := store.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = store.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestReport(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "LifePlanner", PromptTokens: 7, CompletionTokens: 3}))

	report, err := store.BuildReport(7, t.TempDir())
	require.NoError(t, err)

	md := report.Markdown()
	assert.Contains(t, md, "10 tokens (1 execs)")
	assert.Contains(t, md, "Goroutines:")

	empty := Report{}.Markdown()
	assert.Contains(t, empty, "_No data yet_")
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	health := GetSysHealth(dir)

	assert.Positive(t, health.Goroutines)
	assert.Equal(t, "0 B", health.DataDiskSize)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
}
