package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// YahooClient reads daily closes from a Yahoo-Finance-compatible chart API.
type YahooClient struct {
	baseURL string
	client  *http.Client
}

// NewYahooClient builds a client against baseURL, e.g.
// "https://query1.finance.yahoo.com".
func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YahooClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Latest returns the most recent close for ticker.
func (c *YahooClient) Latest(ctx context.Context, ticker string) (Quote, error) {
	points, err := c.History(ctx, ticker, Day1)
	if err != nil {
		return Quote{}, err
	}
	last := points[len(points)-1]
	return Quote{Ticker: ticker, Price: last.Close, At: last.Date}, nil
}

// History returns the daily closes covering the window, ascending by date.
func (c *YahooClient) History(ctx context.Context, ticker string, window Window) ([]ClosePoint, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", c.baseURL, ticker, window)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart request: %w", err)
	}
	req.Header.Set("User-Agent", "radar-do-caos/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotAvailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s returned status %d", ticker, resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", ticker, err)
	}

	if parsed.Chart.Error != nil {
		log.Debugf("chart upstream error for %s: %s", ticker, parsed.Chart.Error.Code)
		return nil, ErrNotAvailable
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNotAvailable
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	points := make([]ClosePoint, 0, len(closes))
	for i, close := range closes {
		// Sessions without a close (holidays, live gaps) come back as null.
		if close == nil || i >= len(result.Timestamp) {
			continue
		}
		points = append(points, ClosePoint{
			Date:  time.Unix(result.Timestamp[i], 0).UTC(),
			Close: *close,
		})
	}

	if len(points) == 0 {
		return nil, ErrNotAvailable
	}
	return points, nil
}

var _ Source = (*YahooClient)(nil)
