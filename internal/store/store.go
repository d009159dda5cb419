package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RFQStatus string

const (
	StatusDraft             RFQStatus = "draft"
	StatusPublished         RFQStatus = "published"
	StatusAwaitingResponses RFQStatus = "awaiting_responses"
	StatusUnderReview       RFQStatus = "under_review"
	StatusAwarded           RFQStatus = "awarded"
	StatusRejectedAll       RFQStatus = "rejected_all"
	StatusClosed            RFQStatus = "closed"
)

type EnvelopeStatus string

const (
	EnvelopeSent      EnvelopeStatus = "sent"
	EnvelopeViewed    EnvelopeStatus = "viewed"
	EnvelopeResponded EnvelopeStatus = "responded"
)

type QuotationStatus string

const (
	QuotationPending     QuotationStatus = "pending"
	QuotationShortlisted QuotationStatus = "shortlisted"
	QuotationAwarded     QuotationStatus = "awarded"
	QuotationRejected    QuotationStatus = "rejected"
)

type RFQ struct {
	ID        uuid.UUID `json:"rfq_id"`
	Title     string    `json:"title"`
	IssuerOrg string    `json:"issuer_org"`
	Currency  string    `json:"currency,omitempty"`
	Deadline  time.Time `json:"deadline"`
	Status    RFQStatus `json:"status"`

	// Set by the award transaction
	AwardedQuotationID *uuid.UUID `json:"awarded_quotation_id,omitempty"`
	PurchaseOrderRef   string     `json:"purchase_order_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is one requested product within an RFQ. Immutable once the RFQ
// is published.
type LineItem struct {
	RFQID       uuid.UUID `json:"rfq_id"`
	LineItemID  int       `json:"line_item_id"`
	INNName     string    `json:"inn_name"`
	BrandName   string    `json:"brand_name,omitempty"`
	Dosage      string    `json:"dosage,omitempty"`
	Form        string    `json:"form,omitempty"`
	UnitOfIssue string    `json:"unit_of_issue,omitempty"`
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VendorCandidate is a vendor eligible to receive an envelope for an RFQ,
// together with the other line items it could independently fulfill.
type VendorCandidate struct {
	ID             uuid.UUID `json:"vendor_id"`
	Name           string    `json:"name"`
	Rating         float64   `json:"rating"`
	Location       string    `json:"location,omitempty"`
	Certifications []string  `json:"certifications,omitempty"`
	PastOrders     int       `json:"past_orders"`
	ResponseRate   float64   `json:"response_rate"`
	CanFulfill     []int     `json:"can_fulfill_line_items,omitempty"`
}

type CandidateFilter struct {
	Search        string
	Location      string
	Certification string
	Limit         int
}

// Envelope is the payload sent to one vendor for one RFQ: the requirement
// being staffed plus any bundled extras.
type Envelope struct {
	ID               uuid.UUID      `json:"envelope_id"`
	RFQID            uuid.UUID      `json:"rfq_id"`
	VendorID         uuid.UUID      `json:"vendor_id"`
	VendorName       string         `json:"vendor_name"`
	ActiveLineItemID int            `json:"active_line_item_id"`
	LineItemIDs      []int          `json:"line_item_ids"`
	ProcurementMode  string         `json:"procurement_mode"`
	Status           EnvelopeStatus `json:"status"`
	SentAt           time.Time      `json:"sent_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type Quotation struct {
	ID           uuid.UUID       `json:"quotation_id"`
	RFQID        uuid.UUID       `json:"rfq_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	VendorName   string          `json:"vendor_name"`
	TotalPrice   float64         `json:"total_price"`
	DeliveryDays int             `json:"delivery_days"`
	Notes        string          `json:"notes,omitempty"`
	Status       QuotationStatus `json:"status"`

	// Vendor rating captured at submission time, 0-5.
	VendorRating float64 `json:"vendor_rating"`

	ValidUntil  time.Time `json:"valid_until"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Award binds exactly one quotation per RFQ to awarded status.
type Award struct {
	RFQID            uuid.UUID `json:"rfq_id"`
	QuotationID      uuid.UUID `json:"quotation_id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	VendorName       string    `json:"vendor_name"`
	PurchaseOrderRef string    `json:"purchase_order_ref"`
	RejectedCount    int       `json:"rejected_count"`
	AwardedAt        time.Time `json:"awarded_at"`
}

type RFQFilter struct {
	Status *RFQStatus
	Issuer string
	Limit  int
	Offset int
}

type RFQStats struct {
	TotalDraft      int `json:"total_draft"`
	TotalOpen       int `json:"total_open"`
	TotalUnderReview int `json:"total_under_review"`
	TotalAwarded    int `json:"total_awarded"`
	TotalClosed     int `json:"total_closed"`
	TotalQuotations int `json:"total_quotations"`
}

type Store interface {
	CreateRFQ(ctx context.Context, rfq *RFQ) error
	GetRFQ(ctx context.Context, id uuid.UUID) (*RFQ, error)
	ListRFQs(ctx context.Context, filter RFQFilter) ([]*RFQ, error)

	// TransitionRFQ moves an RFQ from one status to another as a single
	// compare-and-set write. Returns ConflictError if the RFQ is no longer
	// in the expected status.
	TransitionRFQ(ctx context.Context, id uuid.UUID, from, to RFQStatus) error

	CreateLineItem(ctx context.Context, item *LineItem) error
	GetLineItems(ctx context.Context, rfqID uuid.UUID) ([]*LineItem, error)

	ListCandidates(ctx context.Context, rfqID uuid.UUID, filter CandidateFilter) ([]*VendorCandidate, error)

	// AddEnvelopes appends envelopes to the RFQ aggregate. An envelope for a
	// vendor already addressed for the same active requirement is merged
	// (line item ids appended, deduplicated); a vendor addressed for a
	// different requirement receives a new envelope.
	AddEnvelopes(ctx context.Context, rfqID uuid.UUID, envelopes []*Envelope) error
	GetEnvelopes(ctx context.Context, rfqID uuid.UUID) ([]*Envelope, error)
	GetVendorEnvelopes(ctx context.Context, rfqID, vendorID uuid.UUID) ([]*Envelope, error)
	UpdateEnvelopeStatus(ctx context.Context, envelopeID uuid.UUID, status EnvelopeStatus) error

	CreateQuotation(ctx context.Context, q *Quotation) error
	GetQuotation(ctx context.Context, id uuid.UUID) (*Quotation, error)
	ListQuotations(ctx context.Context, rfqID uuid.UUID) ([]*Quotation, error)

	// RejectPendingQuotations marks every pending quotation for the RFQ
	// rejected. Used when the buyer declines all offers.
	RejectPendingQuotations(ctx context.Context, rfqID uuid.UUID) (int, error)

	// AwardQuotation runs the award transaction: the quotation becomes
	// awarded, every other pending quotation for the RFQ becomes rejected,
	// and the RFQ becomes awarded — all or nothing.
	AwardQuotation(ctx context.Context, rfqID, quotationID uuid.UUID, poRef string) (*Award, error)

	GetStats(ctx context.Context) (*RFQStats, error)

	Close() error
}
