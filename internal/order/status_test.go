package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumisonnn/MEDICO/internal/apperr"
)

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got)

	_, err = ParseStatus("bogus")
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, apperr.ErrInvalidStatus)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusProcessing, StatusDelivered, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusConfirmed, StatusPending, false},
		{Status("legacy"), StatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}
