package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Asclepia-Market/Procure/internal/export"
	"github.com/Asclepia-Market/Procure/internal/scoring"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type ExportHandler struct {
	store  store.Store
	scorer *scoring.Scorer
	excel  *export.ExcelGenerator
	pdf    *export.PDFGenerator
}

func NewExportHandler(s store.Store, sc *scoring.Scorer) *ExportHandler {
	return &ExportHandler{
		store:  s,
		scorer: sc,
		excel:  export.NewExcelGenerator(),
		pdf:    export.NewPDFGenerator(),
	}
}

// Comparison downloads the ranked quotation comparison as a workbook.
func (h *ExportHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	rfq, ok := h.loadRFQ(w, r)
	if !ok {
		return
	}

	mode, err := scoring.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	items, err := h.store.GetLineItems(r.Context(), rfq.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	quotations, err := h.store.ListQuotations(r.Context(), rfq.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	ranked, err := h.scorer.Evaluate(quotations, mode)
	if errors.Is(err, scoring.ErrEmptyCandidateSet) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	itemValues := make([]store.LineItem, 0, len(items))
	for _, item := range items {
		itemValues = append(itemValues, *item)
	}
	data, err := h.excel.Generate(*rfq, itemValues, scoring.Disclose(mode, ranked))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="rfq-%s-comparison.xlsx"`, rfq.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PurchaseOrder downloads the PO document for an awarded RFQ.
func (h *ExportHandler) PurchaseOrder(w http.ResponseWriter, r *http.Request) {
	rfq, ok := h.loadRFQ(w, r)
	if !ok {
		return
	}
	if rfq.AwardedQuotationID == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "RFQ has no award"})
		return
	}

	quotation, err := h.store.GetQuotation(r.Context(), *rfq.AwardedQuotationID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && quotation == nil) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "awarded quotation not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	items, err := h.store.GetLineItems(r.Context(), rfq.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	itemValues := make([]store.LineItem, 0, len(items))
	for _, item := range items {
		itemValues = append(itemValues, *item)
	}

	award := store.Award{
		RFQID:            rfq.ID,
		QuotationID:      quotation.ID,
		VendorID:         quotation.VendorID,
		VendorName:       quotation.VendorName,
		PurchaseOrderRef: rfq.PurchaseOrderRef,
		AwardedAt:        rfq.UpdatedAt,
	}
	data, err := h.pdf.Generate(*rfq, award, *quotation, itemValues)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, rfq.PurchaseOrderRef))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ExportHandler) loadRFQ(w http.ResponseWriter, r *http.Request) (*store.RFQ, bool) {
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
