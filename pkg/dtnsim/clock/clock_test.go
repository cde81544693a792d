package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/clock"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
)

func TestNewStartsAtZero(t *testing.T) {
	c := clock.New()
	assert.Equal(t, 0.0, c.Now())
}

func TestAdvanceAccumulates(t *testing.T) {
	c := clock.New()
	require.NoError(t, c.Advance(1.5))
	require.NoError(t, c.Advance(2.5))
	assert.Equal(t, 4.0, c.Now())
}

func TestAdvanceRejectsNonPositiveStep(t *testing.T) {
	c := clock.New()
	err := c.Advance(0)
	require.Error(t, err)
	var invErr *dtnerr.InvariantError
	assert.ErrorAs(t, err, &invErr)

	err = c.Advance(-1)
	require.Error(t, err)
	assert.ErrorAs(t, err, &invErr)
	assert.Equal(t, 0.0, c.Now(), "a rejected advance must not mutate now")
}

func TestResetRestoresZero(t *testing.T) {
	c := clock.New()
	require.NoError(t, c.Advance(10))
	c.Reset()
	assert.Equal(t, 0.0, c.Now())
}
