package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType names what an audit event records.
type AuditEventType string

const (
	AuditRunStart      AuditEventType = "run_start"
	AuditRunEnd        AuditEventType = "run_end"
	AuditProjectResult AuditEventType = "project_result"
	AuditFileWrite     AuditEventType = "file_write"
)

// AuditEvent is one line of the audit log. Events of one run share RunID.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"` // Unix milliseconds
	EventType  AuditEventType `json:"event"`
	RunID      string         `json:"run"`
	Target     string         `json:"target,omitempty"`
	Status     string         `json:"status,omitempty"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

var (
	auditFile *os.File
	auditMu   sync.Mutex
)

// AuditLogger writes events for one run.
type AuditLogger struct {
	runID string
}

// Audit returns an audit logger scoped to runID.
func Audit(runID string) *AuditLogger {
	return &AuditLogger{runID: runID}
}

// Log appends event to <logs>/<date>_audit.jsonl. It is a no-op unless
// debug mode is on.
func (a *AuditLogger) Log(event AuditEvent) {
	settingsMu.RLock()
	dir, on := logsDir, settings.DebugMode
	settingsMu.RUnlock()
	if !on || dir == "" {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RunID == "" {
		event.RunID = a.runID
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile == nil {
		path := filepath.Join(dir, fmt.Sprintf("%s_audit.jsonl", time.Now().Format("2006-01-02")))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[logging] Warning: could not open audit log %s: %v\n", path, err)
			return
		}
		auditFile = f
	}
	_, _ = auditFile.Write(append(data, '\n'))
}

// FileWrite records a layout written to disk.
func (a *AuditLogger) FileWrite(path string, size int, err error) {
	ev := AuditEvent{EventType: AuditFileWrite, Target: path, Success: err == nil, Fields: map[string]any{"size": size}}
	if err != nil {
		ev.Error = err.Error()
	}
	a.Log(ev)
}

// ProjectResult records the outcome for one project.
func (a *AuditLogger) ProjectResult(project, status string, dur time.Duration, err error) {
	ev := AuditEvent{EventType: AuditProjectResult, Target: project, Status: status, Success: err == nil, DurationMs: dur.Milliseconds()}
	if err != nil {
		ev.Error = err.Error()
	}
	a.Log(ev)
}

func closeAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}
