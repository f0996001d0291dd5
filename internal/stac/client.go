package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nandanaasingh09/NDMI-Calculator/internal/properties"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to a STAC API over its POST /search endpoint.
type Client struct {
	API        string
	Collection string
	PageLimit  int
	Retries    int
	RetryDelay time.Duration
	HTTPClient *http.Client
}

func NewClient(ctx context.Context, settings properties.Settings) *Client {
	httpClient := &http.Client{Timeout: settings.HTTPTimeout}
	if settings.STACTokenURL != "" {
		config := &clientcredentials.Config{
			ClientID:     settings.STACClientID,
			ClientSecret: settings.STACClientSecret,
			TokenURL:     settings.STACTokenURL,
		}
		httpClient = config.Client(ctx)
	}

	return &Client{
		API:        strings.TrimSuffix(settings.STACAPIURL, "/"),
		Collection: settings.STACCollection,
		PageLimit:  settings.SearchLimit,
		Retries:    settings.SearchRetries,
		RetryDelay: settings.RetryDelay,
		HTTPClient: httpClient,
	}
}

type SearchParams struct {
	Bbox          [4]float64
	StartDate     time.Time
	EndDate       time.Time
	MaxCloudCover float64
}

type searchPage struct {
	Features []Item     `json:"features"`
	Links    []pageLink `json:"links"`
}

type pageLink struct {
	Rel    string                 `json:"rel"`
	Href   string                 `json:"href"`
	Method string                 `json:"method"`
	Merge  bool                   `json:"merge"`
	Body   map[string]interface{} `json:"body"`
}

// Search returns every item matching the parameters, following paging links
// until the catalog runs out. An empty result is not an error.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Item, error) {
	body := map[string]interface{}{
		"collections": []string{c.Collection},
		"bbox":        params.Bbox[:],
		"datetime": fmt.Sprintf("%s/%s",
			params.StartDate.UTC().Format(time.RFC3339),
			params.EndDate.UTC().Format(time.RFC3339)),
		"query": map[string]interface{}{
			"eo:cloud_cover": map[string]interface{}{"lt": params.MaxCloudCover},
		},
		"limit": c.PageLimit,
	}

	method := http.MethodPost
	url := c.API + "/search"

	var items []Item
	for {
		page, err := c.fetchPage(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Features...)

		next := findLink(page.Links, "next")
		if next == nil {
			break
		}
		if strings.EqualFold(next.Method, http.MethodGet) {
			method = http.MethodGet
			url = next.Href
			continue
		}
		method = http.MethodPost
		if next.Href != "" {
			url = next.Href
		}
		// Paging tokens arrive either as a full replacement body or as
		// fields to merge into the original one.
		if next.Merge {
			for key, value := range next.Body {
				body[key] = value
			}
		} else if len(next.Body) > 0 {
			body = next.Body
		}
	}
	return items, nil
}

func (c *Client) fetchPage(ctx context.Context, method, url string, body map[string]interface{}) (*searchPage, error) {
	var payload []byte
	if method == http.MethodPost {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal search request: %w", err)
		}
	}

	retries := c.Retries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			if !sleepWithContext(ctx, c.RetryDelay) {
				return nil, ctx.Err()
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to build search request: %w", err)
		}
		if method == http.MethodPost {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			logrus.Warnf("Search attempt %d failed: %v", attempt, err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read search response: %w", err)
			logrus.Warnf("Search attempt %d failed: %v", attempt, lastErr)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			logrus.Warnf("Search attempt %d failed: %v", attempt, lastErr)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}

		var page searchPage
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("failed to parse search response: %w", err)
		}
		return &page, nil
	}
	return nil, fmt.Errorf("search failed after %d attempts: %w", retries, lastErr)
}

func findLink(links []pageLink, rel string) *pageLink {
	for i := range links {
		if links[i].Rel == rel {
			return &links[i]
		}
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
