package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/parser"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type LineItemsHandler struct {
	store  store.Store
	parser parser.Client
}

func NewLineItemsHandler(s store.Store, p parser.Client) *LineItemsHandler {
	return &LineItemsHandler{store: s, parser: p}
}

// CreateLineItemRequest is the flat payload accepted at POST /rfq/line-items.
// LineItemID is a pointer so an absent field is distinguishable from 0.
type CreateLineItemRequest struct {
	RFQID       string `json:"rfq_id"`
	LineItemID  *int   `json:"line_item_id"`
	INNName     string `json:"inn_name"`
	BrandName   string `json:"brand_name,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	Form        string `json:"form,omitempty"`
	UnitOfIssue string `json:"unit_of_issue,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Create adds a single line item to an existing RFQ, addressed by rfq_id in
// the body. This is the contract document pipelines post to, so it sits
// outside the actor-scoped API group.
func (h *LineItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.RFQID == "" || req.LineItemID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing rfq_id or line_item_id"})
		return
	}

	rfqID, err := uuid.Parse(req.RFQID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid rfq_id"})
		return
	}

	rfq, err := h.store.GetRFQ(r.Context(), rfqID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rfq == nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "RFQ not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rfq.Status != store.StatusDraft {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "line items can only be added to a draft RFQ"})
		return
	}

	taken, err := h.lineItemIDTaken(r.Context(), rfqID, *req.LineItemID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if taken {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "line_item_id already exists for this RFQ"})
		return
	}

	item := &store.LineItem{
		RFQID:       rfqID,
		LineItemID:  *req.LineItemID,
		INNName:     req.INNName,
		BrandName:   req.BrandName,
		Dosage:      req.Dosage,
		Form:        req.Form,
		UnitOfIssue: req.UnitOfIssue,
		Quantity:    req.Quantity,
	}
	if err := h.store.CreateLineItem(r.Context(), item); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *LineItemsHandler) lineItemIDTaken(ctx context.Context, rfqID uuid.UUID, itemID int) (bool, error) {
	existing, err := h.store.GetLineItems(ctx, rfqID)
	if err != nil {
		return false, err
	}
	for _, item := range existing {
		if item.LineItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

// IngestRequest is the payload posted by the document parsing pipeline once
// a tender document is extracted.
type IngestRequest struct {
	Metadata  parser.Metadata         `json:"metadata"`
	LineItems []parser.ParsedLineItem `json:"line_items"`
}

type IngestResponse struct {
	RFQID            uuid.UUID `json:"rfq_id"`
	LineItemsCreated int       `json:"line_items_created"`
}

func (h *LineItemsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.createFromParsed(w, r, req.Metadata, req.LineItems)
}

// ImportRequest asks the service to pull a parsed document from the parser
// itself instead of receiving the extraction inline.
type ImportRequest struct {
	DocumentID string `json:"document_id"`
}

func (h *LineItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h.parser == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "document parser not configured"})
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DocumentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document_id required"})
		return
	}

	result, err := h.parser.Parse(r.Context(), req.DocumentID)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	h.createFromParsed(w, r, result.Metadata, result.LineItems)
}

func (h *LineItemsHandler) createFromParsed(w http.ResponseWriter, r *http.Request, meta parser.Metadata, parsed []parser.ParsedLineItem) {
	if meta.IssuerOrg == "" || len(parsed) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "issuer_org and at least one line item required"})
		return
	}

	title := meta.RFQID
	if title == "" {
		title = "Imported RFQ"
	}
	rfq := &store.RFQ{
		Title:     title,
		IssuerOrg: meta.IssuerOrg,
		Currency:  meta.Currency,
		Status:    store.StatusDraft,
	}
	if meta.Deadline != "" {
		if deadline, err := time.Parse(time.RFC3339, meta.Deadline); err == nil {
			rfq.Deadline = deadline
		}
	}
	if err := h.store.CreateRFQ(r.Context(), rfq); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	created := 0
	for i, p := range parsed {
		itemID := p.LineItemID
		if itemID == 0 {
			itemID = i + 1
		}
		item := &store.LineItem{
			RFQID:       rfq.ID,
			LineItemID:  itemID,
			INNName:     p.INNName,
			BrandName:   p.BrandName,
			Dosage:      p.Dosage,
			Form:        p.Form,
			UnitOfIssue: p.UnitOfIssue,
			Quantity:    p.Quantity,
		}
		if err := h.store.CreateLineItem(r.Context(), item); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		created++
	}

	writeJSON(w, http.StatusCreated, IngestResponse{RFQID: rfq.ID, LineItemsCreated: created})
}

func (h *LineItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	items, err := h.store.GetLineItems(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if items == nil {
		items = []*store.LineItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type AddLineItemRequest struct {
	LineItemID  int    `json:"line_item_id"`
	INNName     string `json:"inn_name"`
	BrandName   string `json:"brand_name,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	Form        string `json:"form,omitempty"`
	UnitOfIssue string `json:"unit_of_issue,omitempty"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category,omitempty"`
}

// Add appends a line item to a draft RFQ. Published RFQs are immutable.
func (h *LineItemsHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	rfq, err := h.store.GetRFQ(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rfq == nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "RFQ not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rfq.Status != store.StatusDraft {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "line items can only be added to a draft RFQ"})
		return
	}

	var req AddLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.INNName == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inn_name and positive quantity required"})
		return
	}

	if req.LineItemID == 0 {
		existing, err := h.store.GetLineItems(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		for _, item := range existing {
			if item.LineItemID >= req.LineItemID {
				req.LineItemID = item.LineItemID + 1
			}
		}
		if req.LineItemID == 0 {
			req.LineItemID = 1
		}
	} else {
		taken, err := h.lineItemIDTaken(r.Context(), id, req.LineItemID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if taken {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "line_item_id already exists for this RFQ"})
			return
		}
	}

	item := &store.LineItem{
		RFQID:       id,
		LineItemID:  req.LineItemID,
		INNName:     req.INNName,
		BrandName:   req.BrandName,
		Dosage:      req.Dosage,
		Form:        req.Form,
		UnitOfIssue: req.UnitOfIssue,
		Quantity:    req.Quantity,
		Category:    req.Category,
	}
	if err := h.store.CreateLineItem(r.Context(), item); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, item)
}
