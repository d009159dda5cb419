package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/allocator"
	"github.com/Asclepia-Market/Procure/internal/lifecycle"
	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type EnvelopesHandler struct {
	store     store.Store
	allocator *allocator.Allocator
	notifier  notify.Client
}

func NewEnvelopesHandler(s store.Store, a *allocator.Allocator, n notify.Client) *EnvelopesHandler {
	return &EnvelopesHandler{store: s, allocator: a, notifier: n}
}

func (h *EnvelopesHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	filter := store.CandidateFilter{
		Search:        r.URL.Query().Get("search"),
		Location:      r.URL.Query().Get("location"),
		Certification: r.URL.Query().Get("certification"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}

	candidates, err := h.store.ListCandidates(r.Context(), id, filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if candidates == nil {
		candidates = []*store.VendorCandidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

type AllocateRequest struct {
	ActiveLineItemID int                         `json:"active_line_item_id"`
	ProcurementMode  string                      `json:"procurement_mode,omitempty"`
	Vendors          []allocator.VendorSelection `json:"vendors"`
}

// Allocate builds and records envelopes for one line-item requirement. The
// first batch moves a published RFQ to awaiting_responses.
func (h *EnvelopesHandler) Allocate(w http.ResponseWriter, r *http.Request) {
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
	if rfq.Status != store.StatusPublished && rfq.Status != store.StatusAwaitingResponses {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "RFQ is not open for vendor selection"})
		return
	}

	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	envelopes, err := h.allocator.Allocate(r.Context(), allocator.Request{
		RFQID:            id,
		ActiveLineItemID: req.ActiveLineItemID,
		ProcurementMode:  req.ProcurementMode,
		Vendors:          req.Vendors,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if rfq.Status == store.StatusPublished {
		guards := lifecycle.Guards{EnvelopeCount: len(envelopes)}
		if err := lifecycle.Check(rfq.Status, store.StatusAwaitingResponses, guards); err == nil {
			err := h.store.TransitionRFQ(r.Context(), id, store.StatusPublished, store.StatusAwaitingResponses)
			if err == nil && h.notifier != nil {
				_ = h.notifier.Publish(notify.SubjectRFQAwaiting(id.String()), notify.LifecycleEvent{
					RFQID: id.String(),
					From:  string(store.StatusPublished),
					To:    string(store.StatusAwaitingResponses),
					At:    time.Now(),
				})
			}
		}
	}

	if h.notifier != nil {
		_ = h.notifier.Publish(notify.SubjectEnvelopesSent(id.String()), notify.EnvelopesSentEvent{
			RFQID:      id.String(),
			LineItemID: req.ActiveLineItemID,
			Vendors:    len(envelopes),
		})
	}
	writeJSON(w, http.StatusCreated, envelopes)
}

func (h *EnvelopesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	envelopes, err := h.store.GetEnvelopes(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if envelopes == nil {
		envelopes = []*store.Envelope{}
	}
	writeJSON(w, http.StatusOK, envelopes)
}

func (h *EnvelopesHandler) VendorList(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}
	vendorID, err := uuid.Parse(chi.URLParam(r, "vendor_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vendor id"})
		return
	}

	envelopes, err := h.store.GetVendorEnvelopes(r.Context(), rfqID, vendorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if envelopes == nil {
		envelopes = []*store.Envelope{}
	}
	writeJSON(w, http.StatusOK, envelopes)
}

type EnvelopeStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus records vendor engagement. Status only moves forward along
// sent -> viewed -> responded.
func (h *EnvelopesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid envelope id"})
		return
	}

	var req EnvelopeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	status := store.EnvelopeStatus(req.Status)
	if status != store.EnvelopeViewed && status != store.EnvelopeResponded {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be viewed or responded"})
		return
	}

	err = h.store.UpdateEnvelopeStatus(r.Context(), id, status)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "envelope not found"})
		return
	}
	if store.IsConflict(err) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
