package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// OracleClient talks to the external similarity service. Requests carry a
// cookie jar because the service expects credentialed calls.
//
// The client has no timeout: an in-flight scoring request is awaited to
// completion, never cancelled, and the per-session single-flight guard keeps
// a second submission from piling up behind it.
type OracleClient struct {
	baseURL string
	client  *http.Client
}

// NewOracleClient builds a client for the given base URL.
func NewOracleClient(baseURL string) *OracleClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		logWarn("Failed to create cookie jar: %v", err)
	}
	return &OracleClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Jar: jar},
	}
}

// TotalCount fetches the vocabulary size from GET {base}/total/.
func (o *OracleClient) TotalCount(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/total/", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("total count: unexpected status %d", resp.StatusCode)
	}

	var body TotalCountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("total count: %w", err)
	}
	if body.TotalCount <= 0 {
		return 0, fmt.Errorf("total count: missing or zero total_count")
	}
	return body.TotalCount, nil
}

// Score submits a guess against the given target id via
// GET {base}/{targetID}/{escaped guess}/ and returns the oracle's verdict.
// A non-2xx status, malformed JSON or an error field in the payload all
// surface as an error.
func (o *OracleClient) Score(ctx context.Context, targetID int, word string) (*ScoreResponse, error) {
	scoreURL := fmt.Sprintf("%s/%d/%s/", o.baseURL, targetID, url.PathEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scoreURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("score: unexpected status %d", resp.StatusCode)
	}

	var body ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("score: oracle error: %s", body.Error)
	}
	return &body, nil
}
