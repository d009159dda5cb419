// seed_rfq.go — standalone script to parse a line-item CSV and seed a demo
// RFQ through the ingestion endpoint.
//
// Usage:
//
//	go run scripts/seed_rfq.go -csv /path/to/items.csv -api http://localhost:8700 -issuer "Central Pharmacy"
//
// CSV columns: inn_name,brand_name,dosage,form,unit_of_issue,quantity
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type seedLineItem struct {
	LineItemID  int    `json:"line_item_id"`
	INNName     string `json:"inn_name"`
	BrandName   string `json:"brand_name,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	Form        string `json:"form,omitempty"`
	UnitOfIssue string `json:"unit_of_issue,omitempty"`
	Quantity    int    `json:"quantity"`
}

type seedMetadata struct {
	RFQID     string `json:"rfq_id"`
	IssuerOrg string `json:"issuer_org"`
	Currency  string `json:"currency,omitempty"`
	Deadline  string `json:"deadline,omitempty"`
}

type seedRequest struct {
	Metadata  seedMetadata   `json:"metadata"`
	LineItems []seedLineItem `json:"line_items"`
}

func main() {
	csvPath := flag.String("csv", "items.csv", "path to line-item CSV file")
	apiURL := flag.String("api", "http://localhost:8700", "Procure API base URL")
	title := flag.String("title", "Seeded RFQ", "RFQ title")
	issuer := flag.String("issuer", "Demo Pharmacy", "issuing organization")
	currency := flag.String("currency", "USD", "RFQ currency")
	deadline := flag.String("deadline", "", "response deadline, RFC3339")
	dryRun := flag.Bool("dry-run", false, "print items without posting")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open CSV: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("parse CSV: %v", err)
	}

	var items []seedLineItem
	for i, record := range records {
		if len(record) < 6 {
			log.Printf("skip row %d: expected 6 columns, got %d", i+1, len(record))
			continue
		}
		// Header row
		if i == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "inn_name") {
			continue
		}

		quantity, err := strconv.Atoi(strings.TrimSpace(record[5]))
		if err != nil || quantity <= 0 {
			log.Printf("skip row %d: bad quantity %q", i+1, record[5])
			continue
		}

		items = append(items, seedLineItem{
			LineItemID:  len(items) + 1,
			INNName:     strings.TrimSpace(record[0]),
			BrandName:   strings.TrimSpace(record[1]),
			Dosage:      strings.TrimSpace(record[2]),
			Form:        strings.TrimSpace(record[3]),
			UnitOfIssue: strings.TrimSpace(record[4]),
			Quantity:    quantity,
		})
	}

	log.Printf("parsed %d line items from %s", len(items), *csvPath)
	if len(items) == 0 {
		log.Fatal("nothing to seed")
	}

	if *dryRun {
		for _, item := range items {
			fmt.Printf("[%d] %s %s %s x%d\n", item.LineItemID, item.INNName, item.Dosage, item.Form, item.Quantity)
		}
		return
	}

	payload := seedRequest{
		Metadata: seedMetadata{
			RFQID:     *title,
			IssuerOrg: *issuer,
			Currency:  *currency,
			Deadline:  *deadline,
		},
		LineItems: items,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/imports/inline", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "seed-script")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("post line items: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("ingestion failed: status %d", resp.StatusCode)
	}

	var created struct {
		RFQID            string `json:"rfq_id"`
		LineItemsCreated int    `json:"line_items_created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatalf("decode response: %v", err)
	}
	log.Printf("done: RFQ %s created with %d line items", created.RFQID, created.LineItemsCreated)
}
