// Package cmc provides current crypto prices from the CoinMarketCap pro
// API. It implements coinfolio.SpotSource.
//
// The free tier is heavily rate limited, so every response is cached on
// disk for the rest of the day and a throttled request is retried after the
// rate window resets.
package cmc

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
)

const quotesURL = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest"

// rateLimited is the CMC error code for "API rate limit exceeded".
const rateLimited = 1008

// Client fetches the latest USD quote for crypto symbols.
//
// Responses are cached under CacheDir, one file per symbol, and reused for
// the rest of the UTC day; prices in a portfolio report do not need to be
// fresher than that.
type Client struct {
	APIKey   string
	CacheDir string

	// Aliases maps ledger symbols to the symbol CMC lists them under,
	// e.g. "CHNG" is listed as "XCHNG".
	Aliases map[string]string

	// Pegged maps symbols CMC does not list to a fixed USD price.
	Pegged map[string]float64

	http *http.Client
	// sleep is replaced in tests.
	sleep func(time.Duration)
}

// New creates a Client caching under dir, reading the API key from
// "cmc.txt" in keyDir.
func New(dir, keyDir string) (*Client, error) {
	keyFile := filepath.Join(keyDir, "cmc.txt")
	content, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading CMC API key: %w", err)
	}
	return &Client{
		APIKey:   strings.TrimSpace(string(content)),
		CacheDir: dir,
		http:     new(http.Client),
		sleep:    time.Sleep,
	}, nil
}

// Price returns the latest USD price for symbol.
func (c *Client) Price(symbol string) (coinfolio.Money, error) {
	if price, ok := c.Pegged[symbol]; ok {
		return coinfolio.M(price, "USD"), nil
	}
	listed := symbol
	if alias, ok := c.Aliases[symbol]; ok {
		listed = alias
	}

	data, ok := c.cached(listed)
	if !ok {
		var err error
		data, err = c.fetch(listed)
		if err != nil {
			return coinfolio.Money{}, err
		}
	}

	path := fmt.Sprintf("$.data.%s.quote.USD.price", listed)
	jval, err := jsonpath.Get(path, data)
	if err != nil {
		return coinfolio.Money{}, fmt.Errorf("no USD quote for %s in CMC response: %w", symbol, err)
	}
	price, ok := jval.(float64)
	if !ok {
		return coinfolio.Money{}, fmt.Errorf("USD quote for %s is not a number: %v", symbol, jval)
	}
	return coinfolio.M(price, "USD"), nil
}

// cached returns the symbol's response if it was fetched today already.
func (c *Client) cached(symbol string) (any, bool) {
	content, err := os.ReadFile(c.cacheFile(symbol))
	if err != nil {
		return nil, false
	}
	var data any
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, false
	}
	stamp, err := jsonpath.Get("$.status.timestamp", data)
	if err != nil {
		return nil, false
	}
	day, ok := stamp.(string)
	if !ok || len(day) < 10 || day[:10] != date.Today().String() {
		return nil, false
	}
	return data, true
}

func (c *Client) fetch(symbol string) (any, error) {
	data, err := c.get(symbol)
	if err != nil {
		return nil, err
	}
	// The free tier allows a burst of calls per minute. When the quota is
	// hit, wait out the window and retry.
	for errorCode(data) == rateLimited {
		log.Printf("CMC rate limit reached, waiting a minute before retrying %s", symbol)
		c.sleep(time.Minute)
		if data, err = c.get(symbol); err != nil {
			return nil, err
		}
	}
	if code := errorCode(data); code != 0 {
		return nil, fmt.Errorf("CMC error %d fetching %s", code, symbol)
	}

	if err := c.store(symbol, data); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return data, nil
}

func (c *Client) get(symbol string) (any, error) {
	addr := fmt.Sprintf("%s?symbol=%s&convert=USD", quotesURL, url.QueryEscape(symbol))
	req, err := http.NewRequest(http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from CMC: %w", symbol, err)
	}
	defer resp.Body.Close()
	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding CMC response for %s: %w", symbol, err)
	}
	return data, nil
}

func errorCode(data any) int {
	jval, err := jsonpath.Get("$.status.error_code", data)
	if err != nil {
		return 0
	}
	code, ok := jval.(float64)
	if !ok {
		return 0
	}
	return int(code)
}

func (c *Client) cacheFile(symbol string) string {
	return filepath.Join(c.CacheDir, "symbols", symbol+".json")
}

func (c *Client) store(symbol string, data any) error {
	if err := os.MkdirAll(filepath.Join(c.CacheDir, "symbols"), 0755); err != nil {
		return err
	}
	content, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.cacheFile(symbol), content, 0644)
}
