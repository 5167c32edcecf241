package faultcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/smartmechanic/internal/models"
)

func TestNormalizeRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  error
	}{
		{"missing mid", Input{Value: "131", Mode: ModePID, FMI: "05"}, ErrMissingMID},
		{"blank mid", Input{MID: "  ", Value: "131", Mode: ModePID, FMI: "05"}, ErrMissingMID},
		{"missing value", Input{MID: "128", Mode: ModeSID, FMI: "05"}, ErrMissingValue},
		{"missing fmi", Input{MID: "128", Value: "131", Mode: ModePID}, ErrMissingFMI},
		{"bad mode", Input{MID: "128", Value: "131", Mode: "xid", FMI: "05"}, ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestNormalizeExactlyOneAddress(t *testing.T) {
	pid, err := Normalize(Input{MID: "128", Value: "131", Mode: ModePID, FMI: "05"})
	require.NoError(t, err)
	assert.Equal(t, models.FaultCodeData{MID: "128", PID: "131", FMI: "05"}, pid)

	sid, err := Normalize(Input{MID: "136", Value: "2", Mode: ModeSID, FMI: "3"})
	require.NoError(t, err)
	assert.Equal(t, models.FaultCodeData{MID: "136", SID: "2", FMI: "3"}, sid)
	assert.Empty(t, sid.PID)
}

func TestNormalizeIsPermissive(t *testing.T) {
	data, err := Normalize(Input{MID: "engine", Value: "abc", Mode: ModeSID, FMI: "?"})
	require.NoError(t, err)
	assert.Equal(t, "MID engine SID abc FMI ?", data.Code())
}

func TestCode(t *testing.T) {
	assert.Equal(t, "MID 128 PID 131 FMI 05", models.FaultCodeData{MID: "128", PID: "131", FMI: "05"}.Code())
	assert.Equal(t, "MID 136 SID 1 FMI 2", models.FaultCodeData{MID: "136", SID: "1", FMI: "2"}.Code())
}

func TestParse(t *testing.T) {
	data, err := Parse("mid 128 pid 131 fmi 05")
	require.NoError(t, err)
	assert.Equal(t, models.FaultCodeData{MID: "128", PID: "131", FMI: "05"}, data)

	data, err = Parse("Code: MID:144, SID 231 - FMI 12")
	require.NoError(t, err)
	assert.Equal(t, models.FaultCodeData{MID: "144", SID: "231", FMI: "12"}, data)

	_, err = Parse("128")
	assert.ErrorIs(t, err, ErrNoCode)
}
