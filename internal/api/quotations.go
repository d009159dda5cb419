package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/store"
	"github.com/Asclepia-Market/Procure/internal/watch"
)

// QuotationValidity is how long a submitted offer stays binding.
const QuotationValidity = 30 * 24 * time.Hour

type QuotationsHandler struct {
	store    store.Store
	notifier notify.Client
	watcher  *watch.Watcher
}

func NewQuotationsHandler(s store.Store, n notify.Client, w *watch.Watcher) *QuotationsHandler {
	return &QuotationsHandler{store: s, notifier: n, watcher: w}
}

type SubmitQuotationRequest struct {
	VendorID     string  `json:"vendor_id"`
	VendorName   string  `json:"vendor_name,omitempty"`
	EnvelopeID   string  `json:"envelope_id,omitempty"`
	TotalPrice   float64 `json:"total_price"`
	DeliveryDays int     `json:"delivery_days"`
	Notes        string  `json:"notes,omitempty"`
	VendorRating float64 `json:"vendor_rating,omitempty"`
}

func (h *QuotationsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
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
	if rfq.Status != store.StatusAwaitingResponses && rfq.Status != store.StatusUnderReview {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "RFQ is not accepting quotations"})
		return
	}

	var req SubmitQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vendor_id"})
		return
	}
	if req.TotalPrice <= 0 || req.DeliveryDays <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "total_price and delivery_days must be positive"})
		return
	}
	if req.VendorRating < 0 || req.VendorRating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vendor_rating must be between 0 and 5"})
		return
	}

	quotation := &store.Quotation{
		RFQID:        rfqID,
		VendorID:     vendorID,
		VendorName:   req.VendorName,
		TotalPrice:   req.TotalPrice,
		DeliveryDays: req.DeliveryDays,
		Notes:        req.Notes,
		Status:       store.QuotationPending,
		VendorRating: req.VendorRating,
		ValidUntil:   time.Now().Add(QuotationValidity),
	}
	if err := h.store.CreateQuotation(r.Context(), quotation); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.markResponded(r, rfqID, vendorID, req.EnvelopeID)

	if h.notifier != nil {
		_ = h.notifier.Publish(notify.SubjectQuotationReceived(rfqID.String()), notify.QuotationReceivedEvent{
			RFQID:        rfqID.String(),
			QuotationID:  quotation.ID.String(),
			VendorID:     vendorID.String(),
			TotalPrice:   quotation.TotalPrice,
			DeliveryDays: quotation.DeliveryDays,
		})
	}

	// First response may complete the review guard.
	if h.watcher != nil && rfq.Status == store.StatusAwaitingResponses {
		_, _ = h.watcher.AdvanceIfReady(r.Context(), rfqID)
	}

	writeJSON(w, http.StatusCreated, quotation)
}

// markResponded flips the vendor's envelope to responded. The submission
// stands even when no envelope can be matched.
func (h *QuotationsHandler) markResponded(r *http.Request, rfqID, vendorID uuid.UUID, envelopeID string) {
	if envelopeID != "" {
		if id, err := uuid.Parse(envelopeID); err == nil {
			_ = h.store.UpdateEnvelopeStatus(r.Context(), id, store.EnvelopeResponded)
			return
		}
	}

	envelopes, err := h.store.GetVendorEnvelopes(r.Context(), rfqID, vendorID)
	if err != nil {
		return
	}
	for _, env := range envelopes {
		if env.Status != store.EnvelopeResponded {
			_ = h.store.UpdateEnvelopeStatus(r.Context(), env.ID, store.EnvelopeResponded)
		}
	}
}

func (h *QuotationsHandler) List(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	quotations, err := h.store.ListQuotations(r.Context(), rfqID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if quotations == nil {
		quotations = []*store.Quotation{}
	}
	writeJSON(w, http.StatusOK, quotations)
}

func (h *QuotationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quotation id"})
		return
	}

	quotation, err := h.store.GetQuotation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && quotation == nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "quotation not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, quotation)
}
