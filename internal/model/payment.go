package model

import "time"

// PaymentLine records money taken against an order.  Lines are
// append-only: never edited or deleted, only added.  Refunds are out
// of scope.
//
// Fields:
//  ID              – primary key identifier.
//  OrderID         – order the payment settles against.
//  Method          – CASH, CARD or MEAL_CARD.
//  Amount          – positive amount taken.
//  CreatedAt       – when the payment was recorded.
//  CreatedByUserID – staff member who recorded it.
type PaymentLine struct {
    ID              uint64    `json:"id"`
    OrderID         uint64    `json:"order_id"`
    Method          string    `json:"method"`
    Amount          float64   `json:"amount"`
    CreatedAt       time.Time `json:"created_at"`
    CreatedByUserID uint64    `json:"created_by_user_id"`
}
