package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/infra/resilience"
	"github.com/Giancarlo174/cenit/internal/port"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// RecordStore implementation over PostgREST
// ============================================================

// buildPath renders the query into a PostgREST path. Filter keys are
// sorted so paths are deterministic (stable logs and tests). A nil
// filter value becomes `is.null`, everything else `eq.<value>`.
func buildPath(table string, q port.Query) string {
	path := table
	sep := "?"

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := q.Filters[k]
		if v == nil {
			path += fmt.Sprintf("%s%s=is.null", sep, k)
		} else {
			path += fmt.Sprintf("%s%s=eq.%s", sep, k, url.QueryEscape(fmt.Sprint(v)))
		}
		sep = "&"
	}

	if q.OrderBy != nil {
		dir := "desc"
		if q.OrderBy.Ascending {
			dir = "asc"
		}
		path += fmt.Sprintf("%sorder=%s.%s", sep, q.OrderBy.Column, dir)
	}

	return path
}

// List fetches all rows of a table matching the query. Reads go through
// the circuit breaker and retry policy; a tripped breaker surfaces as
// ErrCircuitOpen.
func (c *Client) List(ctx context.Context, table string, q port.Query) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.List")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var reqErr error
			body, reqErr = c.do(ctx, http.MethodGet, buildPath(table, q), nil)
			return reqErr
		})
	})
	if err != nil {
		return nil, classifyError(table, err)
	}

	if body == nil {
		body = []byte("[]")
	}
	return body, nil
}

// GetByID fetches a single row by primary key.
func (c *Client) GetByID(ctx context.Context, table, id string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	path := fmt.Sprintf("%s?id=eq.%s&limit=1", table, url.QueryEscape(id))

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var reqErr error
			body, reqErr = c.do(ctx, http.MethodGet, path, nil)
			return reqErr
		})
	})
	if err != nil {
		return nil, classifyError(table, err)
	}

	row, err := firstRow(body)
	if err != nil || row == nil {
		return nil, &domain.ErrNotFound{Resource: table, ID: id}
	}
	return row, nil
}

// Insert creates one row. The server assigns id and created_at; the
// created row is returned.
func (c *Client) Insert(ctx context.Context, table string, record map[string]any) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Insert")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	body, err := c.do(ctx, http.MethodPost, table, record)
	if err != nil {
		return nil, classifyError(table, err)
	}

	row, err := firstRow(body)
	if err != nil || row == nil {
		return nil, &domain.ErrExternalService{Service: "supabase/" + table, Err: fmt.Errorf("insert returned no row")}
	}
	return row, nil
}

// Update patches one row by primary key and returns the updated row.
func (c *Client) Update(ctx context.Context, table, id string, record map[string]any) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Update")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	path := fmt.Sprintf("%s?id=eq.%s", table, url.QueryEscape(id))
	body, err := c.do(ctx, http.MethodPatch, path, record)
	if err != nil {
		return nil, classifyError(table, err)
	}

	row, err := firstRow(body)
	if err != nil || row == nil {
		return nil, &domain.ErrNotFound{Resource: table, ID: id}
	}
	return row, nil
}

// Delete removes one row by primary key.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("db.table", table))

	path := fmt.Sprintf("%s?id=eq.%s", table, url.QueryEscape(id))
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return classifyError(table, err)
	}
	return nil
}

// firstRow unwraps PostgREST's single-element array responses.
func firstRow(body []byte) (json.RawMessage, error) {
	if body == nil || string(body) == "[]" {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		// Prefer=return=representation on PATCH can return a bare object.
		return body, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
