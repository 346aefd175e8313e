package hosttest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertVariable asserts the host last received want for key.
func AssertVariable(t *testing.T, h *FakeHost, key, want string) {
	t.Helper()
	got, ok := h.Variables[key]
	if assert.True(t, ok, "variable %q was never set", key) {
		assert.Equal(t, want, got, "variable %q", key)
	}
}

// AssertEvents asserts the recorded timer commands.
func AssertEvents(t *testing.T, h *FakeHost, want ...string) {
	t.Helper()
	if len(want) == 0 {
		assert.Empty(t, h.Events)
		return
	}
	assert.Equal(t, want, h.Events)
}

// AssertLogged asserts some host log line contains substr.
func AssertLogged(t *testing.T, h *FakeHost, substr string) {
	t.Helper()
	for _, m := range h.Messages {
		if strings.Contains(m, substr) {
			return
		}
	}
	assert.Fail(t, "message not logged", "no host message contains %q; got %q", substr, h.Messages)
}
