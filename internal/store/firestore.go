// Package store talks to Firestore over its REST API. The admin panel's
// backend never adopted the SDK; the documents involved are small and the
// queries are at most two equality filters, so plain runQuery/document
// calls behind a circuit breaker cover everything.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/balaghcms/notification-service/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const baseURL = "https://firestore.googleapis.com/v1"

// TokenSource provides bearer tokens for outbound Google API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	projectID  string
	tokens     TokenSource
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	log        *zap.Logger
}

func NewClient(projectID string, tokens TokenSource, log *zap.Logger) *Client {
	return &Client{
		projectID: projectID,
		tokens:    tokens,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		cb:  circuitbreaker.NewCircuitBreaker("firestore"),
		log: log,
	}
}

// Healthy reports whether the breaker is currently letting requests through.
func (c *Client) Healthy() bool {
	return c.cb.State() != gobreaker.StateOpen
}

// Filter is an equality predicate on a document field.
type Filter struct {
	Field string
	Value string
}

// Query describes a structured query: a collection, up to a handful of
// equality filters, and optional ordering/limit.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Document is a decoded Firestore document.
type Document struct {
	Name   string
	Fields map[string]interface{}
}

// String returns the named field as a string, or "" when absent or not
// string-typed.
func (d Document) String(field string) string {
	s, _ := d.Fields[field].(string)
	return s
}

func (d Document) Bool(field string) bool {
	b, _ := d.Fields[field].(bool)
	return b
}

func (d Document) Time(field string) (time.Time, bool) {
	t, ok := d.Fields[field].(time.Time)
	return t, ok
}

// RunQuery executes a structured query and decodes the matching documents.
func (c *Client) RunQuery(ctx context.Context, q Query) ([]Document, error) {
	structured := map[string]interface{}{
		"from": []map[string]interface{}{{"collectionId": q.Collection}},
	}
	if where := buildWhere(q.Filters); where != nil {
		structured["where"] = where
	}
	if q.OrderBy != "" {
		direction := "ASCENDING"
		if q.Descending {
			direction = "DESCENDING"
		}
		structured["orderBy"] = []map[string]interface{}{{
			"field":     map[string]string{"fieldPath": q.OrderBy},
			"direction": direction,
		}}
	}
	if q.Limit > 0 {
		structured["limit"] = q.Limit
	}

	path := fmt.Sprintf("%s/projects/%s/databases/(default)/documents:runQuery", baseURL, c.projectID)
	body, err := c.do(ctx, http.MethodPost, path, map[string]interface{}{"structuredQuery": structured})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Document *rawDocument `json:"document"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	var docs []Document
	for _, row := range rows {
		if row.Document == nil {
			continue
		}
		docs = append(docs, row.Document.decode())
	}
	return docs, nil
}

// GetDocument fetches a single document by path, e.g. "backupConfig/settings".
// The second return is false when the document does not exist.
func (c *Client) GetDocument(ctx context.Context, docPath string) (Document, bool, error) {
	path := fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s", baseURL, c.projectID, docPath)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		if isNotFound(err) {
			return Document{}, false, nil
		}
		return Document{}, false, err
	}
	var raw rawDocument
	if err := json.Unmarshal(body, &raw); err != nil {
		return Document{}, false, fmt.Errorf("decode document: %w", err)
	}
	return raw.decode(), true, nil
}

// PatchDocument updates the given fields, leaving the rest of the document
// untouched.
func (c *Client) PatchDocument(ctx context.Context, docPath string, fields map[string]interface{}) error {
	u := fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s", baseURL, c.projectID, docPath)
	params := url.Values{}
	for name := range fields {
		params.Add("updateMask.fieldPaths", name)
	}
	_, err := c.do(ctx, http.MethodPatch, u+"?"+params.Encode(), map[string]interface{}{
		"fields": encodeFields(fields),
	})
	return err
}

// CreateDocument appends a document with an auto-generated id.
func (c *Client) CreateDocument(ctx context.Context, collection string, fields map[string]interface{}) error {
	path := fmt.Sprintf("%s/projects/%s/databases/(default)/documents/%s", baseURL, c.projectID, collection)
	_, err := c.do(ctx, http.MethodPost, path, map[string]interface{}{
		"fields": encodeFields(fields),
	})
	return err
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("firestore: status %d: %s", e.code, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, url string, payload interface{}) ([]byte, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			reqBody = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
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
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.log.Warn("firestore request failed",
				zap.String("method", method),
				zap.Int("status", resp.StatusCode))
			return nil, &statusError{code: resp.StatusCode, body: string(body)}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func buildWhere(filters []Filter) map[string]interface{} {
	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		return fieldFilter(filters[0])
	}
	parts := make([]map[string]interface{}, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, fieldFilter(f))
	}
	return map[string]interface{}{
		"compositeFilter": map[string]interface{}{
			"op":      "AND",
			"filters": parts,
		},
	}
}

func fieldFilter(f Filter) map[string]interface{} {
	return map[string]interface{}{
		"fieldFilter": map[string]interface{}{
			"field": map[string]string{"fieldPath": f.Field},
			"op":    "EQUAL",
			"value": map[string]string{"stringValue": f.Value},
		},
	}
}

type rawDocument struct {
	Name   string                     `json:"name"`
	Fields map[string]json.RawMessage `json:"fields"`
}

func (r *rawDocument) decode() Document {
	doc := Document{Name: r.Name, Fields: make(map[string]interface{}, len(r.Fields))}
	for name, raw := range r.Fields {
		var value struct {
			StringValue    *string  `json:"stringValue"`
			IntegerValue   *string  `json:"integerValue"`
			DoubleValue    *float64 `json:"doubleValue"`
			BooleanValue   *bool    `json:"booleanValue"`
			TimestampValue *string  `json:"timestampValue"`
		}
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		switch {
		case value.StringValue != nil:
			doc.Fields[name] = *value.StringValue
		case value.IntegerValue != nil:
			if n, err := strconv.ParseInt(*value.IntegerValue, 10, 64); err == nil {
				doc.Fields[name] = n
			}
		case value.DoubleValue != nil:
			doc.Fields[name] = *value.DoubleValue
		case value.BooleanValue != nil:
			doc.Fields[name] = *value.BooleanValue
		case value.TimestampValue != nil:
			if t, err := time.Parse(time.RFC3339Nano, *value.TimestampValue); err == nil {
				doc.Fields[name] = t
			}
		}
	}
	return doc
}

func encodeFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case string:
			out[name] = map[string]string{"stringValue": v}
		case bool:
			out[name] = map[string]bool{"booleanValue": v}
		case int:
			out[name] = map[string]string{"integerValue": strconv.Itoa(v)}
		case int64:
			out[name] = map[string]string{"integerValue": strconv.FormatInt(v, 10)}
		case float64:
			out[name] = map[string]float64{"doubleValue": v}
		case time.Time:
			out[name] = map[string]string{"timestampValue": v.UTC().Format(time.RFC3339Nano)}
		default:
			out[name] = map[string]string{"stringValue": fmt.Sprint(v)}
		}
	}
	return out
}
