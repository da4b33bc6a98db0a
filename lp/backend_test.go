package lp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBackendPrefersFirstAvailable(t *testing.T) {
	b, err := SelectBackend([]string{SimplexName, GLPKName}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, SimplexName, b.Name())
}

func TestSelectBackendFallsThrough(t *testing.T) {
	glpk := NewGLPKBackend(time.Minute)
	if glpk.Available() {
		t.Skip("glpsol installed; fall-through not observable")
	}
	b, err := SelectBackend([]string{GLPKName, SimplexName}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, SimplexName, b.Name())

	_, err = SelectBackend([]string{GLPKName}, time.Minute)
	assert.Error(t, err)
}

func TestSelectBackendUnknownName(t *testing.T) {
	_, err := SelectBackend([]string{"CPLEX_PY"}, time.Minute)
	assert.Error(t, err)
}

func TestSelectBackendDefaults(t *testing.T) {
	// the default preference list always ends in an available engine
	b, err := SelectBackend(nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestSimplexBackendTraits(t *testing.T) {
	b := NewSimplexBackend()
	assert.True(t, b.Available())
	assert.False(t, b.HonorsTimeLimit())
}

func TestGLPKBackendTraits(t *testing.T) {
	b := NewGLPKBackend(time.Minute)
	assert.Equal(t, GLPKName, b.Name())
	assert.True(t, b.HonorsTimeLimit())
}
