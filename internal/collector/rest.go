package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/proverbian/trade-score/internal/model"
)

// RESTFetcher implements Fetcher against a generic bars REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	http    *httpClient
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration, requestsPerSec float64) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		http:    newHTTPClient(proxyURL, timeout, requestsPerSec),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchBars(ctx context.Context, pair model.Pair, interval, period string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", string(pair))
	q.Set("interval", interval)
	q.Set("period", period)
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := f.http.get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}

	var raw []restBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
