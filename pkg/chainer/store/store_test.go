package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDSourceOrdersByTime(t *testing.T) {
	ids := NewIDSource()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	a := ids.Next(at)
	b := ids.Next(at)
	c := ids.Next(at.Add(time.Second))

	assert.Less(t, a, b, "same millisecond stays monotonic")
	assert.Less(t, b, c)
	assert.Len(t, a, 26)

	got, err := IDTime(c)
	require.NoError(t, err)
	assert.True(t, got.Equal(at.Add(time.Second)))
}

func TestIDTimeRejectsGarbage(t *testing.T) {
	_, err := IDTime("not-a-ulid")
	assert.Error(t, err)
}
