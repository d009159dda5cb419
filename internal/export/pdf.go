package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Asclepia-Market/Procure/internal/store"
)

type PDFGenerator struct {
	fontName string
}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{fontName: "Arial"}
}

// Generate renders the purchase order for an awarded RFQ. The award snapshot
// and the winning quotation must belong to the same RFQ.
func (g *PDFGenerator) Generate(rfq store.RFQ, award store.Award, quotation store.Quotation, items []store.LineItem) ([]byte, error) {
	if award.RFQID != rfq.ID || quotation.ID != award.QuotationID {
		return nil, fmt.Errorf("award %s does not match RFQ %s", award.QuotationID, rfq.ID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "PURCHASE ORDER", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("PO %s, issued %s", award.PurchaseOrderRef, poDate(award.AwardedAt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("RFQ: %s", rfq.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, g.fontName, "Buyer", rfq.IssuerOrg)
	pdf.Ln(2)
	addPartyBlock(pdf, g.fontName, "Supplier", award.VendorName)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Ordered items", "", 1, "L", false, 0, "")

	headers := []string{"#", "Product (INN)", "Dosage", "Form", "Qty"}
	colWidths := []float64{12, 92, 30, 30, 16}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, item := range items {
		row := []string{
			fmt.Sprintf("%d", item.LineItemID),
			itemName(item),
			safeValue(item.Dosage),
			safeValue(item.Form),
			fmt.Sprintf("%d", item.Quantity),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	currency := rfq.Currency
	if currency == "" {
		currency = "USD"
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %.2f %s", quotation.TotalPrice, currency), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Delivery: %d days from PO date", quotation.DeliveryDays), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Offer valid until: %s", poDate(quotation.ValidUntil)), "", 1, "L", false, 0, "")
	if quotation.Notes != "" {
		pdf.MultiCell(0, 6, "Notes: "+quotation.Notes, "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Signatures", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	signatureBlock(pdf, g.fontName, "Buyer", rfq.IssuerOrg)
	signatureBlock(pdf, g.fontName, "Supplier", award.VendorName)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addPartyBlock(pdf *gofpdf.Fpdf, fontName, title, name string) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 5, safeValue(name), "", "L", false)
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == 0 || i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func itemName(item store.LineItem) string {
	if item.BrandName != "" {
		return fmt.Sprintf("%s (%s)", item.INNName, item.BrandName)
	}
	return item.INNName
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func poDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
