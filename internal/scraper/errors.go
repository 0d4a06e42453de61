package scraper

import "errors"

// ErrScrapeNetwork is returned when a profile or allocation-fragment
// request fails at the transport level (spec §7: record diagnostic, do
// not overwrite the existing store record).
var ErrScrapeNetwork = errors.New("scraper: network request failed")

// ErrScrapeParse is returned when a fetched page cannot be parsed into a
// FundDetail (spec §7).
var ErrScrapeParse = errors.New("scraper: failed to parse response")

// ErrScrapeUnusable is returned when the quality verdict over the chosen
// allocations judges them unusable: the primary identifier's own data when
// no proxy identifier was supplied, or the proxy's data when one was
// (spec §4.2 step 5, §7).
var ErrScrapeUnusable = errors.New("scraper: scraped data judged unusable")
