package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewFromSettingsFallsBack(t *testing.T) {
	l := NewFromSettings("loud", false)
	require.NotNil(t, l)
	// no-op logger has every level disabled
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))

	l = NewFromSettings("warn", false)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))
}

func TestNamed(t *testing.T) {
	l := NewNop().Named("window").With(zap.String("session", "sess_x"))
	require.NotNil(t, l)
	l.Info("ignored")
}
