// Package frankfurter provides daily fiat exchange rates from the free
// Frankfurter API (api.frankfurter.dev), backed by a persistent JSON cache
// so a ledger import only ever fetches each day once.
package frankfurter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
	"github.com/etnz/coinfolio/internal/fetch"
)

const baseURL = "https://api.frankfurter.dev/v1"

// Client fetches daily conversion rates between fiat currencies. It
// implements coinfolio.RateSource.
//
// Rates are cached on disk under CacheDir, one file per currency pair
// ("EUR_USD.json") mapping days to rates. Historical rates never change, so
// the cache never expires.
type Client struct {
	CacheDir string

	http  *http.Client
	rates map[string]map[string]float64 // pair key -> day -> rate
}

// New creates a Client caching under dir.
func New(dir string) *Client {
	return &Client{CacheDir: dir, http: fetch.Daily(), rates: map[string]map[string]float64{}}
}

// Rate returns the conversion rate from one fiat currency to another on the
// given day, fetching it from the API on a cache miss.
func (c *Client) Rate(from, to string, on date.Date) (coinfolio.Quantity, error) {
	pair := from + "_" + to
	days, ok := c.rates[pair]
	if !ok {
		days = c.load(pair)
		c.rates[pair] = days
	}
	day := on.String()
	if rate, ok := days[day]; ok {
		return coinfolio.Q(rate), nil
	}

	rate, err := c.fetch(from, to, day)
	if err != nil {
		return coinfolio.Quantity{}, err
	}
	days[day] = rate
	if err := c.save(pair, days); err != nil {
		return coinfolio.Quantity{}, err
	}
	return coinfolio.Q(rate), nil
}

func (c *Client) fetch(from, to, day string) (float64, error) {
	addr := fmt.Sprintf("%s/%s?base=%s&symbols=%s", baseURL, day, from, to)
	var response struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := fetch.JSON(c.http, addr, &response); err != nil {
		return 0, fmt.Errorf("fetching %s/%s rate for %s: %w", from, to, day, err)
	}
	rate, ok := response.Rates[to]
	if !ok {
		return 0, fmt.Errorf("no %s rate in response for %s", to, day)
	}
	return rate, nil
}

func (c *Client) cacheFile(pair string) string {
	return filepath.Join(c.CacheDir, pair+".json")
}

func (c *Client) load(pair string) map[string]float64 {
	days := map[string]float64{}
	content, err := os.ReadFile(c.cacheFile(pair))
	if err != nil {
		return days
	}
	// A corrupt cache file is treated as empty and rewritten on the next
	// fetch.
	json.Unmarshal(content, &days)
	return days
}

func (c *Client) save(pair string, days map[string]float64) error {
	if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
		return err
	}
	content, err := json.MarshalIndent(days, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cacheFile(pair), content, 0644)
}
