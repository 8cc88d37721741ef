// Package ticketing is the HTTP client of the upstream ticketing platform.
package ticketing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
)

const (
	DefaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

type ClientConfig struct {
	Region     string
	BaseURL    string
	Credential string
	Timeout    time.Duration
}

// Client talks to one region's account. Every request first waits on the
// rate governor under the region key.
type Client struct {
	cfg      ClientConfig
	governor ports.RateGovernor
	logger   *logrus.Logger
	hc       *http.Client
}

func NewClient(cfg ClientConfig, governor ports.RateGovernor, logger *logrus.Logger, hc *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, governor: governor, logger: logger, hc: hc}
}

type listResponse[T any] struct {
	Rows  []T `json:"rows"`
	Total int `json:"total"`
}

type ticketRow struct {
	ID         string  `json:"_id"`
	TicketName string  `json:"ticketName"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"createdAt"`
	RealPrice  float64 `json:"realPrice"`
	Barcode    string  `json:"barcode"`
	EventID    string  `json:"eventId"`
}

func (r ticketRow) record() domain.TicketRecord {
	return domain.TicketRecord{
		ID:         r.ID,
		TicketName: r.TicketName,
		HolderName: r.Name,
		Email:      r.Email,
		Status:     domain.TicketStatus(strings.ToUpper(r.Status)),
		CreatedAt:  parseTimestamp(r.CreatedAt),
		Price:      r.RealPrice,
		Barcode:    r.Barcode,
		EventID:    r.EventID,
	}
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds and
// returns the zero time for anything else.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (c *Client) ListTickets(ctx context.Context, q ports.TicketQuery) (ports.TicketPage, error) {
	params := url.Values{}
	params.Set("event", q.EventID)
	params.Set("top", strconv.Itoa(q.Top))
	params.Set("skip", strconv.Itoa(q.Skip))
	if q.Status != "" {
		params.Set("status", q.Status)
	}

	var resp listResponse[ticketRow]
	if err := c.get(ctx, "/tickets", params, &resp); err != nil {
		return ports.TicketPage{}, err
	}

	page := ports.TicketPage{Rows: make([]domain.TicketRecord, 0, len(resp.Rows)), Total: resp.Total}
	for _, row := range resp.Rows {
		page.Rows = append(page.Rows, row.record())
	}
	return page, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	params := url.Values{}
	params.Set("include", "tickets")

	var event domain.Event
	if err := c.get(ctx, "/events/"+url.PathEscape(eventID), params, &event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

// CountTickets reads the listing total for a single-row query.
func (c *Client) CountTickets(ctx context.Context, q ports.CountQuery) (int, error) {
	params := url.Values{}
	params.Set("event", q.EventID)
	params.Set("top", "1")
	status := q.Status
	if status == "" {
		status = domain.SellableStatusFilter
	}
	params.Set("status", status)
	if q.TicketTypeID != "" {
		params.Set("ticketTypeId", q.TicketTypeID)
	}
	if q.ShopID != "" {
		params.Set("underShopId", q.ShopID)
	}

	var resp listResponse[json.RawMessage]
	if err := c.get(ctx, "/tickets", params, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.governor != nil {
		if err := c.governor.AwaitIfNeeded(ctx, c.cfg.Region); err != nil {
			return err
		}
	}

	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	hr.Header.Add("Accept", "application/json")
	hr.Header.Add("Content-Type", "application/json")
	hr.Header.Add("Authorization", "Bearer "+c.cfg.Credential)

	started := time.Now()
	hresp, err := c.hc.Do(hr)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.UpstreamError{Err: err}
	}
	defer hresp.Body.Close()

	log := c.logger.WithFields(logrus.Fields{
		"region":  c.cfg.Region,
		"path":    path,
		"status":  hresp.StatusCode,
		"elapsed": time.Since(started).String(),
	})

	if hresp.StatusCode == http.StatusServiceUnavailable {
		log.Warn("upstream overloaded")
		return fmt.Errorf("%w: %s", domain.ErrUpstreamOverloaded, path)
	}
	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(hresp.Body, maxErrorBody))
		log.WithField("body", string(body)).Warn("upstream request rejected")
		return &domain.UpstreamError{StatusCode: hresp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(hresp.Body).Decode(out); err != nil {
		// A body cut off mid-stream decodes as malformed; report it like a
		// transport failure so it is retried.
		return &domain.UpstreamError{Message: "malformed response body", Err: err}
	}
	log.Debug("upstream request ok")
	return nil
}
