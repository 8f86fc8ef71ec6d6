package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/pkg/apperr"
	"github.com/bytedance/sonic"
)

const artworkListPath = "/api/v1/artwork/list"

// SearchClient issues paginated keyword searches against the SeaArt
// community artwork endpoint.
type SearchClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
	pageSize  int
}

func NewSearchClient(cfg *config.Config) *SearchClient {
	return &SearchClient{
		http:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(cfg.SeaArt.BaseURL, "/"),
		userAgent: cfg.SeaArt.UserAgent,
		pageSize:  cfg.SeaArt.PageSize,
	}
}

type searchPayload struct {
	Keyword  string   `json:"keyword"`
	OrderBy  string   `json:"order_by"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Tags     []string `json:"tags"`
	Type     string   `json:"type"`
}

// SearchResponse keeps the upstream document opaque; only the data.items
// path is consumed, via Items.
type SearchResponse struct {
	Data struct {
		Items json.RawMessage `json:"items"`
	} `json:"data"`
}

// Items returns the result array, or an ExtractionError when the envelope
// does not carry one.
func (r *SearchResponse) Items() ([]json.RawMessage, error) {
	if len(r.Data.Items) == 0 {
		return nil, &apperr.ExtractionError{Reason: "data.items missing from response"}
	}
	var items []json.RawMessage
	if err := sonic.Unmarshal(r.Data.Items, &items); err != nil {
		return nil, &apperr.ExtractionError{Reason: "data.items is not an array"}
	}
	if items == nil {
		return nil, &apperr.ExtractionError{Reason: "data.items missing from response"}
	}
	return items, nil
}

// Search runs one page of a keyword/tag search. '+' in the keyword is
// treated as a space, matching the query-string form searches arrive in.
func (c *SearchClient) Search(ctx context.Context, keyword string, page int, tags []string) (*SearchResponse, error) {
	if tags == nil {
		tags = []string{}
	}
	payload := searchPayload{
		Keyword:  strings.ReplaceAll(keyword, "+", " "),
		OrderBy:  "hot",
		Page:     page,
		PageSize: c.pageSize,
		Tags:     tags,
		Type:     "community",
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+artworkListPath, bytes.NewReader(body))
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	out := &SearchResponse{}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return nil, &apperr.UpstreamError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return out, nil
}

// ItemMeta is the handful of fields the store needs from one search result.
type ItemMeta struct {
	ImageURL string
	HashID   string
	Prompt   string
	Width    int32
	Height   int32
}

// ExtractItem pulls banner.url, id, prompt and the banner dimensions from
// one result item. Best-effort: missing or malformed fields degrade to zero
// values so a single bad item can never abort a batch.
func ExtractItem(raw json.RawMessage) ItemMeta {
	var item struct {
		ID     string `json:"id"`
		Prompt string `json:"prompt"`
		Banner struct {
			URL    string `json:"url"`
			Width  int32  `json:"width"`
			Height int32  `json:"height"`
		} `json:"banner"`
	}
	// Decode errors are deliberately swallowed; whatever was filled stays.
	_ = sonic.Unmarshal(raw, &item)

	return ItemMeta{
		ImageURL: item.Banner.URL,
		HashID:   item.ID,
		Prompt:   item.Prompt,
		Width:    item.Banner.Width,
		Height:   item.Banner.Height,
	}
}
