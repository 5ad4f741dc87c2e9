package pii

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoggingDB_NewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLoggingDB(10)

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, store.InsertLog(ctx, msg, DirectionManual, nil))
	}

	logs, err := store.GetLogs(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "third", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)

	logs, err = store.GetLogs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, []LogEntry{}, logs[0].DetectedPII)
}

func TestInMemoryLoggingDB_BoundedRetention(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLoggingDB(2)

	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, store.InsertLog(ctx, msg, DirectionManual, nil))
	}

	count, err := store.GetLogsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	logs, err := store.GetLogs(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "c", logs[0].Message)
	assert.Equal(t, "b", logs[1].Message)
}

func TestInMemoryLoggingDB_CleanupAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLoggingDB(10)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return now.Add(-2 * time.Hour) }
	require.NoError(t, store.InsertLog(ctx, "old", DirectionManual, nil))
	store.now = func() time.Time { return now }
	require.NoError(t, store.InsertLog(ctx, "new", DirectionManual, nil))

	removed, err := store.CleanupOldLogs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	logs, err := store.GetLogs(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "new", logs[0].Message)

	require.NoError(t, store.ClearLogs(ctx))
	count, err := store.GetLogsCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInMemoryLoggingDB_TruncatesLargeMessages(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLoggingDB(1)
	big := make([]byte, MaxLogMessageSize+10)
	for i := range big {
		big[i] = 'x'
	}

	require.NoError(t, store.InsertLog(ctx, string(big), DirectionManual, nil))
	logs, err := store.GetLogs(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxLogMessageSize+len("... [truncated]"), len(logs[0].Message))
}

func TestTruncateMessage_KeepsRunesWhole(t *testing.T) {
	// One ASCII byte then two-byte runes: the byte limit falls inside a rune.
	message := "x" + strings.Repeat("é", MaxLogMessageSize)

	got := truncateMessage(message)
	if !utf8.ValidString(got) {
		t.Fatal("Expected truncated message to be valid UTF-8")
	}
	if !strings.HasSuffix(got, "... [truncated]") {
		t.Errorf("Expected truncation marker, got suffix '%s'", got[len(got)-20:])
	}
	if kept := len(strings.TrimSuffix(got, "... [truncated]")); kept != MaxLogMessageSize-1 {
		t.Errorf("Expected %d bytes kept, got %d", MaxLogMessageSize-1, kept)
	}
}

func TestTruncateMessage_ShortMessageUnchanged(t *testing.T) {
	message := "été [PHONE]"
	if got := truncateMessage(message); got != message {
		t.Errorf("Expected '%s', got '%s'", message, got)
	}
}
