// Package allocator decides, per vendor, which set of line-item requirements
// an outgoing RFQ envelope contains. Bundling is an explicit request/response
// exchange so the decision is reproducible and auditable.
package allocator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/store"
)

// VendorSelection is one selected vendor plus the bundling toggles the buyer
// switched on for it. Toggled ids outside the vendor's fulfillable set are
// ignored.
type VendorSelection struct {
	VendorID                 uuid.UUID `json:"vendor_id"`
	VendorName               string    `json:"vendor_name"`
	IncludeOtherRequirements []int     `json:"include_other_requirements,omitempty"`
}

// Request asks for envelopes covering one line-item requirement.
type Request struct {
	RFQID            uuid.UUID         `json:"rfq_id"`
	ActiveLineItemID int               `json:"active_line_item_id"`
	ProcurementMode  string            `json:"procurement_mode"`
	Vendors          []VendorSelection `json:"vendors"`
}

type Allocator struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Allocator {
	return &Allocator{store: s, logger: logger}
}

// BuildRequirements assembles the ordered requirement list for one vendor:
// the active requirement first, then every toggled-on entry from the vendor's
// fulfillable set, deduplicated. The result is never empty and never repeats
// a line item id.
func BuildRequirements(activeID int, toggles, fulfillable []int) []int {
	canFulfill := make(map[int]bool, len(fulfillable))
	for _, id := range fulfillable {
		canFulfill[id] = true
	}

	list := []int{activeID}
	seen := map[int]bool{activeID: true}
	for _, id := range toggles {
		if seen[id] || !canFulfill[id] {
			continue
		}
		seen[id] = true
		list = append(list, id)
	}
	return list
}

// SelectAll returns the toggle set for "select all other requirements": every
// entry in the vendor's fulfillable set except the active requirement.
func SelectAll(activeID int, fulfillable []int) []int {
	var out []int
	for _, id := range fulfillable {
		if id != activeID {
			out = append(out, id)
		}
	}
	return out
}

// Allocate builds and persists envelopes for the request. Envelopes append to
// the RFQ aggregate: a vendor already addressed for this requirement has its
// envelope extended, one addressed for a different requirement gets a second,
// independent envelope.
func (a *Allocator) Allocate(ctx context.Context, req Request) ([]*store.Envelope, error) {
	if len(req.Vendors) == 0 {
		return nil, fmt.Errorf("allocation request has no vendors")
	}

	items, err := a.store.GetLineItems(ctx, req.RFQID)
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	itemIDs := make([]int, 0, len(items))
	active := false
	for _, item := range items {
		itemIDs = append(itemIDs, item.LineItemID)
		if item.LineItemID == req.ActiveLineItemID {
			active = true
		}
	}
	if !active {
		return nil, fmt.Errorf("line item %d not part of RFQ %s", req.ActiveLineItemID, req.RFQID)
	}

	candidates, err := a.store.ListCandidates(ctx, req.RFQID, store.CandidateFilter{})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	fulfillable := make(map[uuid.UUID][]int, len(candidates))
	names := make(map[uuid.UUID]string, len(candidates))
	for _, c := range candidates {
		fulfillable[c.ID] = c.CanFulfill
		names[c.ID] = c.Name
	}

	now := time.Now()
	envelopes := make([]*store.Envelope, 0, len(req.Vendors))
	for _, sel := range req.Vendors {
		name := sel.VendorName
		if name == "" {
			name = names[sel.VendorID]
		}
		envelopes = append(envelopes, &store.Envelope{
			RFQID:            req.RFQID,
			VendorID:         sel.VendorID,
			VendorName:       name,
			ActiveLineItemID: req.ActiveLineItemID,
			LineItemIDs:      BuildRequirements(req.ActiveLineItemID, sel.IncludeOtherRequirements, fulfillable[sel.VendorID]),
			ProcurementMode:  req.ProcurementMode,
			Status:           store.EnvelopeSent,
			SentAt:           now,
		})
	}

	if err := a.store.AddEnvelopes(ctx, req.RFQID, envelopes); err != nil {
		return nil, fmt.Errorf("persist envelopes: %w", err)
	}

	a.logger.Info("envelopes allocated",
		"rfq_id", req.RFQID,
		"line_item_id", req.ActiveLineItemID,
		"vendors", len(envelopes),
	)
	return envelopes, nil
}
