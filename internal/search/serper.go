package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SerperClient queries the Serper web search API.
type SerperClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// NewSerperClient creates a new Serper API client
func NewSerperClient(apiKey string, maxResults int, timeout time.Duration) *SerperClient {
	return &SerperClient{
		apiKey:     apiKey,
		baseURL:    "https://google.serper.dev",
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *SerperClient) Name() string { return "serper" }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		ImageURL string `json:"imageUrl"`
		Date     string `json:"date"`
	} `json:"organic"`
}

// Search queries Serper and maps the organic results.
func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(serperRequest{Query: query, Num: c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var serperResp serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&serperResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]Result, 0, len(serperResp.Organic))
	for i, item := range serperResp.Organic {
		if i >= c.maxResults {
			break
		}
		results = append(results, Result{
			Title:       item.Title,
			Snippet:     item.Snippet,
			URL:         item.Link,
			ImageURL:    item.ImageURL,
			PublishedAt: parsePublishedDate(item.Date),
		})
	}

	return results, nil
}

// parsePublishedDate parses the date formats providers return. Relative
// dates ("2 hours ago") are left as zero time.
func parsePublishedDate(dateStr string) time.Time {
	if dateStr == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"Jan 2, 2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t
		}
	}

	return time.Time{}
}
