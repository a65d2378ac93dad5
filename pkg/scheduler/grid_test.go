package scheduler

import (
	"errors"
	"testing"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeGrid_Default(t *testing.T) {
	g, err := NewTimeGrid(DefaultWindows())
	require.NoError(t, err)
	require.Equal(t, 3, g.SlotCount())

	for i := 0; i < g.SlotCount(); i++ {
		slot, ok := g.SlotAt(i)
		require.True(t, ok)
		assert.Equal(t, i, slot.Index)
		assert.Equal(t, 150, slot.DurationMinutes)
	}

	first, _ := g.SlotAt(0)
	assert.Equal(t, "08:00", first.Start)
	assert.Equal(t, "10:30", first.End)

	_, ok := g.SlotAt(3)
	assert.False(t, ok)
	_, ok = g.SlotAt(-1)
	assert.False(t, ok)
}

func TestNewTimeGrid_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		windows []models.Window
		index   int
	}{
		{"empty", nil, 0},
		{"overlap", []models.Window{{Start: "08:00", End: "10:30"}, {Start: "10:00", End: "12:00"}}, 1},
		{"out of order", []models.Window{{Start: "11:00", End: "12:00"}, {Start: "08:00", End: "09:00"}}, 1},
		{"ends before start", []models.Window{{Start: "10:00", End: "09:00"}}, 0},
		{"zero length", []models.Window{{Start: "10:00", End: "10:00"}}, 0},
		{"bad clock", []models.Window{{Start: "8am", End: "10:00"}}, 0},
		{"midnight end", []models.Window{{Start: "22:00", End: "24:00"}}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTimeGrid(tc.windows)
			require.Error(t, err)

			var ge *InvalidGridError
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, tc.index, ge.Index)
		})
	}
}

func TestNewTimeGrid_TouchingSlotsAllowed(t *testing.T) {
	g, err := NewTimeGrid([]models.Window{
		{Start: "08:00", End: "10:30"},
		{Start: "10:30", End: "13:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.SlotCount())
}

func TestOverlap(t *testing.T) {
	assert.True(t, Overlap(0, 10, 5, 15))
	assert.True(t, Overlap(5, 15, 0, 10))
	assert.False(t, Overlap(0, 10, 10, 20))
	assert.False(t, Overlap(10, 20, 0, 10))
}
