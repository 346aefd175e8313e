// Package testutil provides wasm fixtures and assertions shared by tests.
package testutil

import (
	"encoding/json"
	"errors"
	"testing"

	domainerrors "github.com/CryZe/lasr-compiler/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertAssemblyKind asserts err is an AssemblyError of kind.
func AssertAssemblyKind(t *testing.T, err error, kind domainerrors.AssemblyKind, msgAndArgs ...interface{}) {
	t.Helper()
	var aerr *domainerrors.AssemblyError
	if assert.True(t, errors.As(err, &aerr), "want AssemblyError, got %v", err) {
		assert.Equal(t, kind, aerr.Kind, msgAndArgs...)
	}
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}
