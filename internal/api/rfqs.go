package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/lifecycle"
	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type RFQsHandler struct {
	store    store.Store
	notifier notify.Client
}

func NewRFQsHandler(s store.Store, n notify.Client) *RFQsHandler {
	return &RFQsHandler{store: s, notifier: n}
}

type CreateRFQRequest struct {
	Title     string    `json:"title"`
	IssuerOrg string    `json:"issuer_org"`
	Currency  string    `json:"currency,omitempty"`
	Deadline  time.Time `json:"deadline,omitempty"`
}

func (h *RFQsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRFQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Title == "" || req.IssuerOrg == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and issuer_org required"})
		return
	}

	rfq := &store.RFQ{
		Title:     req.Title,
		IssuerOrg: req.IssuerOrg,
		Currency:  req.Currency,
		Deadline:  req.Deadline,
		Status:    store.StatusDraft,
	}
	if err := h.store.CreateRFQ(r.Context(), rfq); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.notifier != nil {
		_ = h.notifier.Publish(notify.SubjectRFQCreated, rfq)
	}
	writeJSON(w, http.StatusCreated, rfq)
}

func (h *RFQsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.RFQFilter{
		Issuer: r.URL.Query().Get("issuer"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.RFQStatus(s)
		filter.Status = &status
	}

	rfqs, err := h.store.ListRFQs(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rfqs == nil {
		rfqs = []*store.RFQ{}
	}
	writeJSON(w, http.StatusOK, rfqs)
}

func (h *RFQsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rfq, ok := h.loadRFQ(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rfq)
}

func (h *RFQsHandler) Publish(w http.ResponseWriter, r *http.Request) {
	rfq, ok := h.loadRFQ(w, r)
	if !ok {
		return
	}

	items, err := h.store.GetLineItems(r.Context(), rfq.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	guards := lifecycle.Guards{LineItemCount: len(items)}
	if !h.applyTransition(w, r, rfq, store.StatusPublished, guards) {
		return
	}

	if h.notifier != nil {
		_ = h.notifier.Publish(notify.SubjectRFQPublished(rfq.ID.String()), notify.LifecycleEvent{
			RFQID: rfq.ID.String(),
			From:  string(store.StatusDraft),
			To:    string(store.StatusPublished),
			At:    time.Now(),
		})
	}
	rfq.Status = store.StatusPublished
	writeJSON(w, http.StatusOK, rfq)
}

func (h *RFQsHandler) Close(w http.ResponseWriter, r *http.Request) {
	rfq, ok := h.loadRFQ(w, r)
	if !ok {
		return
	}

	if !h.applyTransition(w, r, rfq, store.StatusClosed, lifecycle.Guards{}) {
		return
	}

	if h.notifier != nil {
		_ = h.notifier.Publish(notify.SubjectRFQClosed(rfq.ID.String()), notify.LifecycleEvent{
			RFQID: rfq.ID.String(),
			From:  string(rfq.Status),
			To:    string(store.StatusClosed),
			At:    time.Now(),
		})
	}
	rfq.Status = store.StatusClosed
	writeJSON(w, http.StatusOK, rfq)
}

// RejectAll declines every received quotation and terminates the RFQ without
// an award.
func (h *RFQsHandler) RejectAll(w http.ResponseWriter, r *http.Request) {
	rfq, ok := h.loadRFQ(w, r)
	if !ok {
		return
	}

	if !h.applyTransition(w, r, rfq, store.StatusRejectedAll, lifecycle.Guards{}) {
		return
	}

	if _, err := h.store.RejectPendingQuotations(r.Context(), rfq.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.notifier != nil {
		if quotations, err := h.store.ListQuotations(r.Context(), rfq.ID); err == nil {
			for _, q := range quotations {
				if q.Status == store.QuotationRejected {
					_ = h.notifier.Publish(notify.SubjectRejected(rfq.ID.String()), notify.RejectionNotification{
						RFQID:    rfq.ID.String(),
						VendorID: q.VendorID.String(),
					})
				}
			}
		}
		_ = h.notifier.Publish(notify.SubjectRFQRejectedAll(rfq.ID.String()), notify.LifecycleEvent{
			RFQID: rfq.ID.String(),
			From:  string(rfq.Status),
			To:    string(store.StatusRejectedAll),
			At:    time.Now(),
		})
	}
	rfq.Status = store.StatusRejectedAll
	writeJSON(w, http.StatusOK, rfq)
}

func (h *RFQsHandler) loadRFQ(w http.ResponseWriter, r *http.Request) (*store.RFQ, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return nil, false
	}

	rfq, err := h.store.GetRFQ(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rfq == nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "RFQ not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return rfq, true
}

// applyTransition validates and executes one state machine edge. A guard or
// edge failure responds 409 and leaves the RFQ untouched.
func (h *RFQsHandler) applyTransition(w http.ResponseWriter, r *http.Request, rfq *store.RFQ, to store.RFQStatus, guards lifecycle.Guards) bool {
	if err := lifecycle.Check(rfq.Status, to, guards); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return false
	}
	if err := h.store.TransitionRFQ(r.Context(), rfq.ID, rfq.Status, to); err != nil {
		if store.IsConflict(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return false
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
