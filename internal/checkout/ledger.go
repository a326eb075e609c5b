// Package checkout implements the kiosk transaction core: the scan ledger,
// the checkout session state machine, and cash payment evaluation.
package checkout

// Item is a product accepted from the classifier. Immutable once created;
// discount is a fraction in [0, 1].
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
}

// DiscountedPrice returns the unit price after discount. No rounding: money
// stays in full float64 precision internally and is rounded only at
// presentation time.
func (i Item) DiscountedPrice() float64 {
	return i.Price * (1 - i.Discount)
}

// BillLine is one row of the grouped bill summary. Derived, never stored.
type BillLine struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Discount  float64 `json:"discount"`
	LineTotal float64 `json:"line_total"`
}

// Ledger accumulates scanned items for the current transaction in scan
// order. Append-only during a transaction; cleared only on checkout reset.
type Ledger struct {
	items []Item
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records a scanned item. It always succeeds; callers pre-filter by
// classifier confidence, so "no product" results never reach the ledger.
func (l *Ledger) Append(item Item) {
	l.items = append(l.items, item)
}

// Items returns the scanned items in scan order.
func (l *Ledger) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Count returns the number of scanned items.
func (l *Ledger) Count() int {
	return len(l.items)
}

// Total returns the sum of discounted unit prices over all scanned items.
func (l *Ledger) Total() float64 {
	var total float64
	for _, item := range l.items {
		total += item.DiscountedPrice()
	}
	return total
}

// Lines groups the ledger by product identity, preserving the first-seen
// order of distinct products. Line totals are accumulated item by item, not
// quantity×unit, so summing the lines reproduces Total() up to float
// summation order.
func (l *Ledger) Lines() []BillLine {
	index := make(map[string]int, len(l.items))
	var lines []BillLine

	for _, item := range l.items {
		i, seen := index[item.ID]
		if !seen {
			index[item.ID] = len(lines)
			lines = append(lines, BillLine{
				Name:      item.Name,
				UnitPrice: item.Price,
				Discount:  item.Discount,
			})
			i = len(lines) - 1
		}
		lines[i].Quantity++
		lines[i].LineTotal += item.DiscountedPrice()
	}

	return lines
}

// Clear discards all scanned items.
func (l *Ledger) Clear() {
	l.items = l.items[:0]
}
