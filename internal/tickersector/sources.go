// Two concrete SectorLookupSources: a Yahoo-Finance-shaped primary and an
// OpenFIGI-shaped secondary (spec §13 SUPPLEMENTED FEATURES). Both share the
// resty-client-plus-rate.Limiter construction grounded on
// figi.rateLimit()/mapFigis, and are swappable behind SectorLookupSource
// without the Cache knowing which is in use.
package tickersector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// YahooSectorSource queries a Yahoo-Finance-shaped quote-summary endpoint
// for a ticker's sector classification. It is the Cache's primary source.
type YahooSectorSource struct {
	baseURL string
	http    *resty.Client
	limiter *rate.Limiter
}

func NewYahooSectorSource(baseURL string) *YahooSectorSource {
	return &YahooSectorSource{
		baseURL: baseURL,
		http:    resty.New().SetTimeout(10 * time.Second),
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 2),
	}
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

func (s *YahooSectorSource) Lookup(ctx context.Context, symbol string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var out yahooQuoteSummaryResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("modules", "assetProfile").
		SetResult(&out).
		Get(fmt.Sprintf("%s/v10/finance/quoteSummary/%s", s.baseURL, symbol))
	if err != nil {
		return "", fmt.Errorf("tickersector: yahoo lookup failed: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("tickersector: yahoo lookup returned status %d", resp.StatusCode())
	}
	if len(out.QuoteSummary.Result) == 0 {
		return "", errors.New("tickersector: yahoo returned no asset profile")
	}
	sectorName := out.QuoteSummary.Result[0].AssetProfile.Sector
	if sectorName == "" {
		return "", errors.New("tickersector: yahoo asset profile has no sector")
	}
	return sectorName, nil
}

// OpenFIGISectorSource queries the OpenFIGI mapping endpoint and derives a
// coarse sector from the returned market sector description. It is the
// Cache's secondary source, tried only when the primary fails or is unset.
type OpenFIGISectorSource struct {
	mappingURL string
	apiKey     string
	http       *resty.Client
	limiter    *rate.Limiter
}

const defaultOpenFIGIMappingURL = "https://api.openfigi.com/v3/mapping"

func NewOpenFIGISectorSource(apiKey string) *OpenFIGISectorSource {
	// OpenFIGI's published rate limit is 25 requests per 6 seconds without
	// a key; matches figi.rateLimit()'s bucket shape.
	dur := (6 * time.Second) / 25
	return &OpenFIGISectorSource{
		mappingURL: defaultOpenFIGIMappingURL,
		apiKey:     apiKey,
		http:       resty.New().SetTimeout(10 * time.Second),
		limiter:    rate.NewLimiter(rate.Every(dur), 10),
	}
}

type openFIGIQuery struct {
	IDType                  string `json:"idType"`
	IDValue                 string `json:"idValue"`
	MarketSectorDescription string `json:"marketSecDes"`
}

type openFIGIMappingResult struct {
	Data []struct {
		MarketSector string `json:"marketSector"`
		SecurityType string `json:"securityType"`
	} `json:"data"`
}

func (s *OpenFIGISectorSource) Lookup(ctx context.Context, symbol string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	query := []openFIGIQuery{{IDType: "TICKER", IDValue: symbol, MarketSectorDescription: "Equity"}}
	var out []openFIGIMappingResult
	req := s.http.R().SetContext(ctx).SetBody(query).SetResult(&out)
	if s.apiKey != "" {
		req = req.SetHeader("X-OPENFIGI-APIKEY", s.apiKey)
	}
	resp, err := req.Post(s.mappingURL)
	if err != nil {
		return "", fmt.Errorf("tickersector: openfigi lookup failed: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return "", fmt.Errorf("tickersector: openfigi lookup returned status %d", resp.StatusCode())
	}
	if len(out) == 0 || len(out[0].Data) == 0 {
		return "", errors.New("tickersector: openfigi returned no mapping")
	}
	marketSector := out[0].Data[0].MarketSector
	if marketSector == "" {
		return "", errors.New("tickersector: openfigi mapping has no market sector")
	}
	return marketSector, nil
}
