package models

// Field is one labelled line of a confirmation email.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Confirmation is the queue message sent after a purchase is recorded.
type Confirmation struct {
	To         []string `json:"to"`
	PurchaseID string   `json:"purchaseId"`
	Supplier   string   `json:"supplier"`
	Fields     []Field  `json:"fields"`
	ReceiptRef string   `json:"receiptRef,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// HasReceipt reports whether a receipt should be attached.
func (c Confirmation) HasReceipt() bool {
	return c.ReceiptRef != "" && c.ReceiptRef != NoReceipt
}
