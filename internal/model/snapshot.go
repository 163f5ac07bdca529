package model

// OrderSnapshot is the denormalized view returned by every mutating
// command: the order plus its items and payments, ready for direct
// client consumption.  It exposes no internal-only fields.
type OrderSnapshot struct {
    Order
    Items    []OrderItem   `json:"items"`
    Payments []PaymentLine `json:"payments"`
}

// PaymentsTotal sums the recorded payment lines.
func (s *OrderSnapshot) PaymentsTotal() float64 {
    total := 0.0
    for _, p := range s.Payments {
        total += p.Amount
    }
    return total
}
