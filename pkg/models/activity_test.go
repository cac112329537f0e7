package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceActivity_Summary(t *testing.T) {
	a := &SourceActivity{
		Name:        "Morning Run",
		Type:        "Run",
		Distance:    10000,
		ElapsedTime: 5400,
	}
	assert.Equal(t, "Morning Run Run 10000 meters in 5400 seconds", a.Summary())
}

func TestSourceActivity_Summary_FractionalDistance(t *testing.T) {
	a := &SourceActivity{
		Name:        "Short Spin",
		Type:        "Ride",
		Distance:    1234.5,
		ElapsedTime: 300,
	}
	assert.Equal(t, "Short Spin Ride 1234.5 meters in 300 seconds", a.Summary())
}

func TestSourceActivity_StartTime(t *testing.T) {
	a := &SourceActivity{StartDate: "2024-01-01T06:00:00Z"}

	ts, err := a.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), ts)
}

func TestSourceActivity_StartTime_Invalid(t *testing.T) {
	a := &SourceActivity{StartDate: "January 1st"}

	_, err := a.StartTime()
	assert.Error(t, err)
}
