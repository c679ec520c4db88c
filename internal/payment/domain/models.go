// Package domain contains the payment input records.
package domain

import "time"

// PaymentRecord is one financial transaction line, supplied fresh each run by
// the external store. Immutable input. The memo is free text and often
// carries a package or discount name.
type PaymentRecord struct {
	CustomerName  string
	Date          time.Time
	Memo          string
	Amount        float64
	InvoiceNumber string
}
