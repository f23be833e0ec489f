// Package pricing computes registration totals from the ticket and workshop
// catalogs. All amounts are whole rupiah.
package pricing

import "github.com/google/uuid"

// Selection is one participant's priced choices.
type Selection struct {
	Category        string
	AttendSymposium bool
	WorkshopIDs     []uuid.UUID
}

// TicketPrices maps participant category to symposium ticket price.
type TicketPrices map[string]int64

// WorkshopPrices maps workshop id to price.
type WorkshopPrices map[uuid.UUID]int64

// Total sums ticket and workshop prices over all participants. The ticket
// price counts only when the participant attends the symposium. Prices
// missing from the catalog are treated as 0 (a valid free item), not an
// error.
func Total(selections []Selection, tickets TicketPrices, workshops WorkshopPrices) int64 {
	var total int64
	for _, s := range selections {
		if s.AttendSymposium {
			total += tickets[s.Category]
		}
		for _, id := range s.WorkshopIDs {
			total += workshops[id]
		}
	}
	return total
}
