package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/user"
)

func newTestLogger() (*RollbarLogger, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	l := NewRollbarLogger(zap.New(obs), core.NewTestConfig())
	l.Enable(false)
	return l, logs
}

func TestRollbarLogger_prepare(t *testing.T) {
	l, _ := newTestLogger()
	usr := user.User{ID: "1", Username: "jane"}
	err := errors.New("boom")
	extras := map[string]interface{}{"k": "v"}

	args := l.prepare("msg", []interface{}{err, usr, extras, user.User{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err, extras}, args)
}

func TestRollbarLogger_writesLocally(t *testing.T) {
	l, logs := newTestLogger()
	usr := user.User{ID: "1", SchoolID: "s1"}

	l.Info("hello", usr, map[string]interface{}{"k": "v"})
	l.Error("failed", errors.New("boom"), 42)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "hello", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "1", fields["user_id"])
	assert.Equal(t, "s1", fields["school_id"])
	assert.Equal(t, map[string]interface{}{"k": "v"}, fields["extras"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	fields = entries[1].ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.EqualValues(t, 42, fields["arg1"])
}
