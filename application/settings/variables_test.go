package settings

import (
	"testing"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/CryZe/lasr-compiler/testing/hosttest"
	"github.com/stretchr/testify/assert"
)

func TestVariableStoreLastWriteWins(t *testing.T) {
	host := hosttest.New()
	s := NewVariableStore()

	s.Set("level", "1")
	s.Set("level", "2")
	s.Set("area", "forest")
	assert.Equal(t, 2, s.Pending())

	assert.Equal(t, 2, s.Flush(host))
	assert.Equal(t, []entities.Variable{
		{Key: "area", Value: "forest"},
		{Key: "level", Value: "2"},
	}, host.VariableWrites)
	assert.Zero(t, s.Pending())

	v, ok := s.Get("level")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	assert.Zero(t, s.Flush(host))
	assert.Len(t, host.VariableWrites, 2)
}

func TestVariableStoreRollback(t *testing.T) {
	host := hosttest.New()
	s := NewVariableStore()
	s.Set("a", "1")

	cp := s.Checkpoint()
	s.Set("a", "2")
	s.Set("b", "x")
	s.Rollback(cp)

	s.Flush(host)
	assert.Equal(t, []entities.Variable{{Key: "a", Value: "1"}}, host.VariableWrites)

	_, ok := s.Get("b")
	assert.False(t, ok)
}
