// Package scraper is the Fund-Detail Scraper: fetches one fund's profile
// page plus incremental country/sector allocation fragments, derives a
// currency allocation from the country breakdown, and writes a FundDetail
// into the Fund-Detail Store (spec §4.2).
//
// HTTP client construction and rate limiting are grounded on
// figi.rateLimit()/mapFigis's resty-client-plus-rate.Limiter shape.
package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	userAgent       = "ClusterRisk-Scraper/1.0"
	ajaxMarkerKey   = "X-Requested-With"
	ajaxMarkerValue = "XMLHttpRequest"

	// siteName is the fund-data site this scraper targets; it names the
	// Source line written to every FundDetail record (spec §4.2 step 4,
	// §8 scenario 6: source begins with "justETF (via Proxy: …)").
	siteName = "justETF"
)

// Client holds one persistent HTTP session used across a fund's profile
// fetch and its incremental allocation loads (cookie jar reuse is handled
// by resty.New()'s default transport).
type Client struct {
	baseURL string
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(baseURL string, requestDelay time.Duration, log zerolog.Logger) *Client {
	if requestDelay <= 0 {
		requestDelay = 2 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http: resty.New().
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml"),
		limiter: rate.NewLimiter(rate.Every(requestDelay), 1),
		log:     log.With().Str("component", "scraper").Logger(),
	}
}

// FetchProfile retrieves one fund's profile HTML plus its country and
// sector allocation fragments, then assembles a FundDetail. When
// proxyIdentifier is non-empty it is used unconditionally for the fund's
// holdings and allocations (the primary identifier contributes metadata
// only); when it is empty the primary identifier's own allocations are
// used and judged by checkDataQuality, refusing to produce a record with
// no proxy to fall back to (spec §4.2 steps 4-5).
func (c *Client) FetchProfile(ctx context.Context, identifier, symbol, proxyIdentifier string) (model.FundDetail, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.FundDetail{}, err
	}
	profileHTML, err := c.getProfile(ctx, identifier)
	if err != nil {
		return model.FundDetail{}, fmt.Errorf("%w: %v", ErrScrapeNetwork, err)
	}
	detail, err := parseProfileHTML(profileHTML)
	if err != nil {
		return model.FundDetail{}, fmt.Errorf("%w: %v", ErrScrapeParse, err)
	}
	detail.Identifier = identifier

	usedProxy := proxyIdentifier != ""
	scrapeID := identifier
	holdings := detail.TopHoldings

	if usedProxy {
		scrapeID = proxyIdentifier
		detail.ProxyIdentifier = proxyIdentifier

		if err := c.limiter.Wait(ctx); err != nil {
			return model.FundDetail{}, err
		}
		proxyHTML, err := c.getProfile(ctx, proxyIdentifier)
		if err != nil {
			return model.FundDetail{}, fmt.Errorf("%w: proxy fetch failed: %v", ErrScrapeNetwork, err)
		}
		proxyDetail, err := parseProfileHTML(proxyHTML)
		if err != nil {
			return model.FundDetail{}, fmt.Errorf("%w: proxy parse failed: %v", ErrScrapeParse, err)
		}
		holdings = proxyDetail.TopHoldings
	}

	countryAlloc, sectorAlloc, err := c.fetchAllocationFragments(ctx, scrapeID, identifier)
	if err != nil {
		return model.FundDetail{}, err
	}

	verdict := checkDataQuality(holdings, countryAlloc, sectorAlloc, detail.DisplayName, scrapeID)
	for _, w := range verdict.warnings {
		c.log.Warn().Str("identifier", scrapeID).Msg(w)
	}
	if verdict.unusable {
		if usedProxy {
			return model.FundDetail{}, fmt.Errorf("%w: proxy %s also unusable: %s", ErrScrapeUnusable, proxyIdentifier, verdict.reason)
		}
		return model.FundDetail{}, fmt.Errorf(
			"%w: %s (hint: supply a proxy identifier for a physically-replicating fund on the same index)",
			ErrScrapeUnusable, verdict.reason,
		)
	}

	detail.TopHoldings = appendOtherHoldings(enrichHoldings(holdings))
	detail.CountryAlloc = countryAlloc
	detail.SectorAlloc = sectorAlloc
	detail.CurrencyAlloc = DeriveCurrencyAllocation(countryAlloc)
	detail.LastUpdated = time.Now().UTC()
	detail.SourceTag = sourceTag(usedProxy, proxyIdentifier)

	return detail, nil
}

// fetchAllocationFragments performs the incremental-load GETs for country
// and sector allocations (spec §4.2 step 3); either failing is a warning,
// not a fatal error, since the quality verdict handles an all-empty result.
func (c *Client) fetchAllocationFragments(ctx context.Context, scrapeID, logIdentifier string) (country, sectorAlloc []model.AllocationEntry, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	countryHTML, err := c.getAllocationFragment(ctx, scrapeID, "country")
	if err == nil {
		country = parseAllocationFragment(countryHTML)
	} else {
		c.log.Warn().Err(err).Str("identifier", logIdentifier).Msg("country allocation fragment fetch failed")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	sectorHTML, err := c.getAllocationFragment(ctx, scrapeID, "sector")
	if err == nil {
		sectorAlloc = parseAllocationFragment(sectorHTML)
	} else {
		c.log.Warn().Err(err).Str("identifier", logIdentifier).Msg("sector allocation fragment fetch failed")
	}

	return country, sectorAlloc, nil
}

// sourceTag builds the FundDetail.Source line (spec §4.2 step 4, §8
// scenario 6).
func sourceTag(usedProxy bool, proxyIdentifier string) string {
	if usedProxy {
		return fmt.Sprintf("%s (via Proxy: %s)", siteName, proxyIdentifier)
	}
	return fmt.Sprintf("%s (auto-generated)", siteName)
}

func (c *Client) getProfile(ctx context.Context, identifier string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("isin", identifier).
		Get(c.baseURL + "/profile")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("profile request returned status %d", resp.StatusCode())
	}
	return resp.String(), nil
}

func (c *Client) getAllocationFragment(ctx context.Context, identifier, kind string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(ajaxMarkerKey, ajaxMarkerValue).
		SetQueryParam("isin", identifier).
		SetQueryParam("type", kind).
		Get(c.baseURL + "/allocations")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s allocation request returned status %d", kind, resp.StatusCode())
	}
	return unwrapCDATAEnvelope(resp.String())
}
