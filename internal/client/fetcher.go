package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"community-chat-service/internal/models"
)

// HTTPHistoryFetcher fetches the recent-history window over the REST
// boundary, for both initial load and fallback polling.
type HTTPHistoryFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPHistoryFetcher builds a fetcher against the service base URL.
func NewHTTPHistoryFetcher(baseURL string, httpClient *http.Client) *HTTPHistoryFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPHistoryFetcher{baseURL: baseURL, client: httpClient}
}

// RecentHistory returns up to limit messages, most recent last.
func (f *HTTPHistoryFetcher) RecentHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	url := f.baseURL + "/chat/messages?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}
