package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/config"
	"github.com/Asclepia-Market/Procure/internal/notify"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type AwardHandler struct {
	store    store.Store
	notifier notify.Client
	cfg      *config.Config
}

func NewAwardHandler(s store.Store, n notify.Client, cfg *config.Config) *AwardHandler {
	return &AwardHandler{store: s, notifier: n, cfg: cfg}
}

type AwardRequest struct {
	QuotationID      string `json:"quotation_id"`
	PurchaseOrderRef string `json:"purchase_order_ref,omitempty"`
}

// Award grants the contract to one quotation. The store transaction rejects
// every other pending offer atomically; concurrent awards lose with 409.
func (h *AwardHandler) Award(w http.ResponseWriter, r *http.Request) {
	rfqID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid RFQ id"})
		return
	}

	var req AwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	quotationID, err := uuid.Parse(req.QuotationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quotation_id"})
		return
	}

	poRef := req.PurchaseOrderRef
	if poRef == "" {
		poRef = fmt.Sprintf("PO-%s-%s",
			time.Now().Format("20060102"),
			strings.ToUpper(quotationID.String()[:8]))
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.AwardTimeout())
	defer cancel()

	award, err := h.store.AwardQuotation(ctx, rfqID, quotationID, poRef)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "RFQ or quotation not found"})
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

	h.publishOutcome(r.Context(), award)
	writeJSON(w, http.StatusOK, award)
}

// publishOutcome emits the award and rejection notifications. The award is
// already committed; a publish failure is logged by the notifier, not
// surfaced to the caller.
func (h *AwardHandler) publishOutcome(ctx context.Context, award *store.Award) {
	if h.notifier == nil {
		return
	}

	_ = h.notifier.Publish(notify.SubjectAwarded(award.RFQID.String()), notify.AwardNotification{
		RFQID:            award.RFQID.String(),
		QuotationID:      award.QuotationID.String(),
		VendorID:         award.VendorID.String(),
		VendorName:       award.VendorName,
		PurchaseOrderRef: award.PurchaseOrderRef,
		AwardedAt:        award.AwardedAt,
	})

	quotations, err := h.store.ListQuotations(ctx, award.RFQID)
	if err != nil {
		return
	}
	for _, q := range quotations {
		if q.Status == store.QuotationRejected {
			_ = h.notifier.Publish(notify.SubjectRejected(award.RFQID.String()), notify.RejectionNotification{
				RFQID:    award.RFQID.String(),
				VendorID: q.VendorID.String(),
			})
		}
	}
}
