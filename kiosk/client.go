// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"riplive/models"
)

// APIError is a non-2xx response from the session store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the session store.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the session store.
func IsConflict(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusConflict
}

// Client talks to the session store API on behalf of one kiosk.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Snapshot fetches the display state for a location.
func (c *Client) Snapshot(ctx context.Context, slug string) (*models.DisplaySnapshot, error) {
	var snap models.DisplaySnapshot
	err := c.do(ctx, "GET", "/display/"+url.PathEscape(slug), nil, nil, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// StartSession begins a rip for a scanned pack.
func (c *Client) StartSession(ctx context.Context, req models.StartSessionRequest) (*models.StartSessionResponse, error) {
	var resp models.StartSessionResponse
	err := c.do(ctx, "POST", "/sessions", req, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession fetches one session by ID, repairing lapsed timers server-side.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.KioskSession, error) {
	var s models.KioskSession
	err := c.do(ctx, "GET", "/sessions/"+url.PathEscape(sessionID), nil, nil, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Advance moves a session to the given stage.
func (c *Client) Advance(ctx context.Context, sessionID, stage, controlToken string) (*models.KioskSession, error) {
	var s models.KioskSession
	headers := map[string]string{"X-Control-Token": controlToken}
	err := c.do(ctx, "POST", "/sessions/"+url.PathEscape(sessionID)+"/advance",
		models.AdvanceStageRequest{Stage: stage}, headers, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AttachReveal binds a scanned card to the live session.
func (c *Client) AttachReveal(ctx context.Context, sessionID, itemID, controlToken string) (*models.KioskSession, error) {
	var s models.KioskSession
	headers := map[string]string{"X-Control-Token": controlToken}
	err := c.do(ctx, "POST", "/sessions/"+url.PathEscape(sessionID)+"/reveal",
		models.AttachRevealRequest{ItemID: itemID}, headers, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Cancel aborts a session.
func (c *Client) Cancel(ctx context.Context, sessionID, controlToken string) (*models.KioskSession, error) {
	var s models.KioskSession
	headers := map[string]string{"X-Control-Token": controlToken}
	err := c.do(ctx, "POST", "/sessions/"+url.PathEscape(sessionID)+"/cancel", nil, headers, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetCard resolves a scanned card code to an inventory item.
func (c *Client) GetCard(ctx context.Context, code string) (*models.CardResponse, error) {
	var card models.CardResponse
	err := c.do(ctx, "GET", "/cards/"+url.PathEscape(code), nil, nil, &card)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		msg := errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
