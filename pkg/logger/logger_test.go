package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &entry), raw)
		out = append(out, entry)
	}
	return out
}

func TestLevelsAndDebugGate(t *testing.T) {
	defer Setup(os.Stdout, false)

	var buf bytes.Buffer
	Setup(&buf, false)
	Debug("Upserting user in Firestore, ID: %s", "u1")
	Error("Firestore error while iterating messages: %v", "deadline exceeded")

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "ERROR", entries[0]["level"])
	assert.Equal(t, "Firestore error while iterating messages: deadline exceeded", entries[0]["msg"])

	buf.Reset()
	Setup(&buf, true)
	Debug("Upserting user in Firestore, ID: %s", "u1")
	entries = lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "DEBUG", entries[0]["level"])
	assert.Equal(t, "Upserting user in Firestore, ID: u1", entries[0]["msg"])
}
