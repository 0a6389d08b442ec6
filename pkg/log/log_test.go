package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONOutputWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithComponent("cycle").Info().Msg("cycle starting")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cycle", line["component"])
	assert.Equal(t, "cycle starting", line["message"])
}

func TestWithCycleIDAddsField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithCycleID("c-42").Info().Msg("starting")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "c-42", line["cycle_id"])
}

func TestWithJobNameAndQueueNameAddFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	Logger = WithJobName("job1")
	WithQueueName("workq").Info().Msg("decided")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "job1", line["job_name"])
	assert.Equal(t, "workq", line["queue_name"])
}

func TestErrorLevelFiltersInfoMessages(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: ErrorLevel, JSONOutput: true, Output: &buf})

	Info("should not appear")
	assert.Empty(t, buf.Bytes())
}
