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

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	BaseURL string
	http    *httpClient
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration, requestsPerSec float64) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		http:    newHTTPClient(proxyURL, timeout, requestsPerSec),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps "EURUSD" to the Yahoo FX ticker "EURUSD=X".
func yahooSymbol(pair model.Pair) string {
	return pair.Base() + pair.Quote() + "=X"
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func (f *YahooFetcher) FetchBars(ctx context.Context, pair model.Pair, interval, period string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(yahooSymbol(pair)), url.QueryEscape(interval), url.QueryEscape(period))

	body, err := f.http.get(ctx, u, http.Header{"User-Agent": {"Mozilla/5.0"}})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %w", ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, ok1 := at(quote.Open, i)
		h, ok2 := at(quote.High, i)
		l, ok3 := at(quote.Low, i)
		c, ok4 := at(quote.Close, i)
		if !(ok1 && ok2 && ok3 && ok4) {
			continue // null bars (market closed, partial minute)
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
