package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditWritesJSONLines(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{DebugMode: true}))

	a := Audit("run-42")
	a.Log(AuditEvent{EventType: AuditRunStart, Success: true})
	a.FileWrite("/p/app/layout.tsx", 120, nil)
	a.ProjectResult("/q", "failed", 3*time.Millisecond, errors.New("parse error"))
	CloseAll()

	matches, err := filepath.Glob(filepath.Join(ws, ".fontmod", "logs", "*_audit.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	var events []AuditEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev AuditEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 3)

	for _, ev := range events {
		assert.Equal(t, "run-42", ev.RunID)
		assert.NotZero(t, ev.Timestamp)
	}
	assert.Equal(t, AuditFileWrite, events[1].EventType)
	assert.Equal(t, "/p/app/layout.tsx", events[1].Target)
	assert.EqualValues(t, 120, events[1].Fields["size"])
	assert.False(t, events[2].Success)
	assert.Equal(t, "parse error", events[2].Error)
	assert.Equal(t, int64(3), events[2].DurationMs)
}

func TestAuditDisabledInProduction(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{DebugMode: false}))
	defer CloseAll()

	Audit("run").Log(AuditEvent{EventType: AuditRunEnd})
	_, err := os.Stat(filepath.Join(ws, ".fontmod"))
	assert.True(t, os.IsNotExist(err))
}
