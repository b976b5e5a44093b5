package registration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-registration/internal/model"
	"github.com/iliyamo/event-registration/internal/queue"
)

func TestItinerary(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

	tests := []struct {
		name     string
		bookings []model.Booking
		want     []queue.CellGame
	}{
		{
			name: "empty itinerary",
			want: []queue.CellGame{},
		},
		{
			name: "one booking per cell",
			bookings: []model.Booking{
				{Day: 1, Line: 1, Game: "Dungeon Crawl", CreatedAt: at(0)},
				{Day: 1, Line: 2, Game: "Space Opera", CreatedAt: at(1)},
			},
			want: []queue.CellGame{
				{Day: 1, Line: 1, Game: "Dungeon Crawl"},
				{Day: 1, Line: 2, Game: "Space Opera"},
			},
		},
		{
			name: "earliest created booking wins the cell",
			bookings: []model.Booking{
				{Day: 2, Line: 1, Game: "First Pick", CreatedAt: at(0)},
				{Day: 2, Line: 1, Game: "Second Pick", CreatedAt: at(5)},
			},
			want: []queue.CellGame{
				{Day: 2, Line: 1, Game: "First Pick"},
			},
		},
		{
			name: "output sorted by day then line regardless of creation order",
			bookings: []model.Booking{
				{Day: 2, Line: 2, Game: "Late Slot", CreatedAt: at(0)},
				{Day: 1, Line: 2, Game: "Afternoon One", CreatedAt: at(1)},
				{Day: 2, Line: 1, Game: "Morning Two", CreatedAt: at(2)},
				{Day: 1, Line: 1, Game: "Morning One", CreatedAt: at(3)},
			},
			want: []queue.CellGame{
				{Day: 1, Line: 1, Game: "Morning One"},
				{Day: 1, Line: 2, Game: "Afternoon One"},
				{Day: 2, Line: 1, Game: "Morning Two"},
				{Day: 2, Line: 2, Game: "Late Slot"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Itinerary(tt.bookings))
		})
	}
}
