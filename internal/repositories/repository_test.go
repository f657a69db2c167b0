package repositories

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			"postgres duplicate event fact",
			errors.New(`ERROR: duplicate key value violates unique constraint "idx_occupancy_events_guest_kind" (SQLSTATE 23505)`),
			true,
		},
		{
			"postgres duplicate live token",
			errors.New(`ERROR: duplicate key value violates unique constraint "idx_scoped_tokens_one_live" (SQLSTATE 23505)`),
			true,
		},
		{
			"sqlite duplicate",
			errors.New("UNIQUE constraint failed: rooms.number"),
			true,
		},
		{"nil", nil, false},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
