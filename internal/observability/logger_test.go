package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("calling model", "api_key", "sk-123456", "operation", "copy")
	l.With("bg_removal_api_key", "abc").Warn("retrying")

	entries := logs.All()
	assert.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, redacted, fields["api_key"])
	assert.Equal(t, "copy", fields["operation"])
	assert.Equal(t, redacted, entries[1].ContextMap()["bg_removal_api_key"])
}

func TestLogger_ShortensDataURLs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	img := "data:image/png;base64," + string(make([]byte, 200))
	l.Debug("decoded", "source", img)
	got := logs.All()[0].ContextMap()["source"].(string)
	assert.Less(t, len(got), 80)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****cdef", MaskKey("abcdef"))
	assert.Equal(t, "***", MaskKey("abc"))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("ignored", "k", "v")
		OrNop(nil).Error("ignored")
	})
}
