// Package parser is the client for the external PDF-parsing ingestion
// pipeline. The core only consumes the line_items section of the parsed
// payload; everything else is carried for the caller's benefit.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Metadata struct {
	RFQID            string `json:"rfq_id"`
	IssuerOrg        string `json:"issuer_org"`
	Deadline         string `json:"deadline"`
	Currency         string `json:"currency"`
	EvaluationMethod string `json:"evaluation_method"`
}

type ParsedLineItem struct {
	LineItemID  int    `json:"line_item_id"`
	INNName     string `json:"inn_name"`
	BrandName   string `json:"brand_name"`
	Dosage      string `json:"dosage"`
	Form        string `json:"form"`
	UnitOfIssue string `json:"unit_of_issue"`
	Quantity    int    `json:"quantity"`
}

type ParsedRequirement struct {
	Category    string `json:"category"`
	Requirement string `json:"requirement"`
	Mandatory   bool   `json:"mandatory"`
}

type ParseResult struct {
	Metadata             Metadata            `json:"metadata"`
	LineItems            []ParsedLineItem    `json:"line_items"`
	Requirements         []ParsedRequirement `json:"requirements"`
	DeliveryRequirements json.RawMessage     `json:"delivery_requirements,omitempty"`
	EvaluationCriteria   json.RawMessage     `json:"evaluation_criteria,omitempty"`
}

type Client interface {
	Parse(ctx context.Context, documentID string) (*ParseResult, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type parseResponse struct {
	Status string      `json:"status"`
	Data   ParseResult `json:"data"`
}

func (c *HTTPClient) Parse(ctx context.Context, documentID string) (*ParseResult, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/parse/"+documentID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("parser: %d %s", resp.StatusCode, string(body))
	}

	var raw parseResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &raw.Data, nil
}
