// Package export renders buyer-facing documents: the quotation comparison
// workbook and the purchase order PDF.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Asclepia-Market/Procure/internal/scoring"
	"github.com/Asclepia-Market/Procure/internal/store"
)

type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Generate builds a two-sheet workbook for an evaluated RFQ: a summary of
// the RFQ and its line items, and the ranked quotation comparison.
func (g *ExcelGenerator) Generate(rfq store.RFQ, items []store.LineItem, disclosure scoring.Disclosure) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, rfq, items, disclosure); err != nil {
		return nil, err
	}

	rankingSheet := "Ranking"
	file.NewSheet(rankingSheet)
	if err := g.writeRanking(file, rankingSheet, disclosure); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(file *excelize.File, sheet string, rfq store.RFQ, items []store.LineItem, disclosure scoring.Disclosure) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "RFQ")
	set("B1", rfq.Title)
	set("A2", "Issuer")
	set("B2", rfq.IssuerOrg)
	set("A3", "Status")
	set("B3", string(rfq.Status))
	set("A4", "Deadline")
	set("B4", formatDate(rfq.Deadline))
	set("A5", "Scoring mode")
	set("B5", string(disclosure.Mode))
	set("A6", "Quotations shown")
	set("B6", fmt.Sprintf("%d of %d", disclosure.Shown, disclosure.Total))
	set("A7", "Lowest offer")
	set("B7", formatAmount(disclosure.LowestPrice, rfq.Currency))

	tableRow := 9
	headers := []string{"#", "Product (INN)", "Brand", "Dosage", "Form", "Unit", "Quantity"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, item := range items {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), item.LineItemID)
		set(fmt.Sprintf("B%d", row), item.INNName)
		set(fmt.Sprintf("C%d", row), item.BrandName)
		set(fmt.Sprintf("D%d", row), item.Dosage)
		set(fmt.Sprintf("E%d", row), item.Form)
		set(fmt.Sprintf("F%d", row), item.UnitOfIssue)
		set(fmt.Sprintf("G%d", row), item.Quantity)
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "B", 36)
	_ = file.SetColWidth(sheet, "C", "F", 14)
	_ = file.SetColWidth(sheet, "G", "G", 10)
	return nil
}

func (g *ExcelGenerator) writeRanking(file *excelize.File, sheet string, disclosure scoring.Disclosure) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Rank",
		"Vendor",
		"Rating",
		"Completed orders",
		"Total price",
		"Delivery days",
		"Score",
		"Match %",
		"Quality",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, r := range disclosure.Results {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), r.Rank)
		set(fmt.Sprintf("B%d", row), r.VendorName)
		set(fmt.Sprintf("C%d", row), fmt.Sprintf("%.1f", r.VendorRating))
		set(fmt.Sprintf("D%d", row), r.CompletedOrders)
		set(fmt.Sprintf("E%d", row), fmt.Sprintf("%.2f", r.TotalPrice))
		set(fmt.Sprintf("F%d", row), r.DeliveryDays)
		set(fmt.Sprintf("G%d", row), fmt.Sprintf("%.1f", r.DisplayScore))
		set(fmt.Sprintf("H%d", row), r.MatchPercentage)
		set(fmt.Sprintf("I%d", row), scoring.QualityLabel(r.DisplayScore))
	}

	_ = file.SetColWidth(sheet, "A", "A", 6)
	_ = file.SetColWidth(sheet, "B", "B", 32)
	_ = file.SetColWidth(sheet, "C", "I", 16)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(value float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%.2f %s", value, currency)
}
