package data

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/logger"
)

// polygonProvider implements Provider against the Polygon.io aggregates API.
// It is the real-data path for underlying bars; option chains in real-data
// mode come from CSV snapshots (see LoadChainCSV).
type polygonProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewPolygonProvider returns a Polygon.io-backed bars provider.
func NewPolygonProvider(apiKey string) Provider {
	return &polygonProvider{
		apiKey:  apiKey,
		baseURL: "https://api.polygon.io",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type polygonAggsResp struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []struct {
		T int64   `json:"t"` // unix millis
		O float64 `json:"o"`
		H float64 `json:"h"`
		L float64 `json:"l"`
		C float64 `json:"c"`
		V float64 `json:"v"`
	} `json:"results"`
}

func (p *polygonProvider) GetDailyBars(symbol string, from, to time.Time) ([]Bar, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		p.baseURL, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"), p.apiKey)

	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("polygon bars request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polygon bars: status %d", resp.StatusCode)
	}

	var parsed polygonAggsResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("polygon bars decode: %w", err)
	}

	out := make([]Bar, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		d := time.UnixMilli(r.T).UTC()
		out = append(out, Bar{
			Date:   time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Open:   r.O,
			High:   r.H,
			Low:    r.L,
			Close:  r.C,
			Volume: r.V,
		})
	}
	logger.Debugf("polygon bars: %s %d days", symbol, len(out))
	return out, nil
}
