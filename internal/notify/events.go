package notify

import "time"

// AwardNotification tells both parties about a contract award. Published
// after the award transaction commits; a publish failure never rolls the
// award back.
type AwardNotification struct {
	RFQID            string    `json:"rfq_id"`
	QuotationID      string    `json:"quotation_id"`
	VendorID         string    `json:"vendor_id"`
	VendorName       string    `json:"vendor_name,omitempty"`
	PurchaseOrderRef string    `json:"purchase_order_ref"`
	AwardedAt        time.Time `json:"awarded_at"`
}

type RejectionNotification struct {
	RFQID    string `json:"rfq_id"`
	VendorID string `json:"vendor_id"`
}

type EnvelopesSentEvent struct {
	RFQID      string `json:"rfq_id"`
	LineItemID int    `json:"line_item_id"`
	Vendors    int    `json:"vendors"`
}

type QuotationReceivedEvent struct {
	RFQID        string  `json:"rfq_id"`
	QuotationID  string  `json:"quotation_id"`
	VendorID     string  `json:"vendor_id"`
	TotalPrice   float64 `json:"total_price"`
	DeliveryDays int     `json:"delivery_days"`
}

type LifecycleEvent struct {
	RFQID  string    `json:"rfq_id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason,omitempty"`
}
