package pricing

import (
	"testing"

	"github.com/google/uuid"
)

func TestTotal(t *testing.T) {
	wsECG := uuid.New()
	wsACLS := uuid.New()
	tickets := TicketPrices{
		"student":        100000,
		"general_doctor": 250000,
	}
	workshops := WorkshopPrices{
		wsECG:  50000,
		wsACLS: 250000,
	}

	tests := []struct {
		name       string
		selections []Selection
		want       int64
	}{
		{
			name: "student with symposium and one workshop",
			selections: []Selection{
				{Category: "student", AttendSymposium: true, WorkshopIDs: []uuid.UUID{wsECG}},
			},
			want: 150000,
		},
		{
			name: "no symposium fee when not attending",
			selections: []Selection{
				{Category: "student", AttendSymposium: false, WorkshopIDs: []uuid.UUID{wsECG}},
			},
			want: 50000,
		},
		{
			name: "multiple participants sum independently",
			selections: []Selection{
				{Category: "student", AttendSymposium: true},
				{Category: "general_doctor", AttendSymposium: true, WorkshopIDs: []uuid.UUID{wsECG, wsACLS}},
			},
			want: 100000 + 250000 + 50000 + 250000,
		},
		{
			name: "unknown category prices as zero",
			selections: []Selection{
				{Category: "astronaut", AttendSymposium: true, WorkshopIDs: []uuid.UUID{wsECG}},
			},
			want: 50000,
		},
		{
			name: "unknown workshop prices as zero",
			selections: []Selection{
				{Category: "student", AttendSymposium: true, WorkshopIDs: []uuid.UUID{uuid.New()}},
			},
			want: 100000,
		},
		{
			name:       "empty selection",
			selections: nil,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(tt.selections, tickets, workshops)
			if got != tt.want {
				t.Errorf("Total() = %d, want %d", got, tt.want)
			}
		})
	}
}
