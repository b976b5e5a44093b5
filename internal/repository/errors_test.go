package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDuplicateOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		key  string
		want bool
	}{
		{
			name: "mysql8 qualified key name",
			err:  errors.New("Error 1062 (23000): Duplicate entry '5-12' for key 'bookings.uq_slot_seat'"),
			key:  "uq_slot_seat",
			want: true,
		},
		{
			name: "legacy bare key name",
			err:  errors.New("Error 1062: Duplicate entry '5-12' for key 'uq_slot_seat'"),
			key:  "uq_slot_seat",
			want: true,
		},
		{
			name: "duplicate on a different key",
			err:  errors.New("Error 1062 (23000): Duplicate entry '7-1-2' for key 'bookings.uq_user_cell'"),
			key:  "uq_slot_seat",
			want: false,
		},
		{
			name: "non duplicate error",
			err:  errors.New("Error 1213 (40001): Deadlock found when trying to get lock"),
			key:  "uq_slot_seat",
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			key:  "uq_slot_seat",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isDuplicateOf(tt.err, tt.key))
		})
	}
}
