package logging

import (
	"bytes"
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	tests := []struct {
		level   string
		verbose bool
		want    log.Level
	}{
		{"", false, log.InfoLevel},
		{"warn", false, log.WarnLevel},
		{"DEBUG", false, log.DebugLevel},
		{"error", true, log.DebugLevel},
	}

	for _, tt := range tests {
		require.NoError(t, Setup(tt.level, tt.verbose))
		assert.Equal(t, tt.want, log.GetLevel(), "level=%q verbose=%v", tt.level, tt.verbose)
	}

	assert.Error(t, Setup("chatty", false))
}

func TestSetOutput(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	var buf bytes.Buffer
	SetOutput(&buf)
	log.WithField("group", "tap").Warn("Gesture group started")

	assert.Contains(t, buf.String(), "Gesture group started")
	assert.Contains(t, buf.String(), "group=tap")
}
