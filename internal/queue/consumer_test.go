package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage_AppendsAuditLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "decisions.log")
	ev := DecisionAssignedEvent{
		EventID:       "e-1",
		UserID:        "u1",
		DecisionIndex: 3,
		Action:        1,
		ActionProb:    0.75,
		DecisionHour:  9,
		WindowStart:   "2024-01-02T04:00:00",
		Phase:         "STARTED",
		AssignedAt:    "2024-01-02T03:58:00",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, HandleMessage(body, path))
	require.NoError(t, HandleMessage(body, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "user_id=u1")
	assert.Contains(t, lines[0], "decision_index=3")
	assert.Contains(t, lines[0], "prob=0.7500")
}

func TestHandleMessage_RejectsBadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.log")
	assert.Error(t, HandleMessage([]byte("{not json"), path))
	assert.Error(t, HandleMessage([]byte(`{"event_id":"x"}`), path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
