// Package etherscan discovers the wallets behind a set of seed addresses by
// walking their token transfers on the Etherscan API.
//
// Starting from known addresses, every counterparty of an outgoing or
// incoming transfer is visited in turn. Addresses with a large transfer
// count are exchanges or contracts, not wallets, and go on a persistent
// blacklist so later runs skip them immediately.
package etherscan

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
	"github.com/etnz/coinfolio/internal/fetch"
	"github.com/shopspring/decimal"
)

const apiURL = "https://api.etherscan.io/api"

// contractThreshold is the transfer count above which an address is
// considered an exchange or contract rather than a personal wallet.
const contractThreshold = 100

const (
	blacklistFile = "blacklisted_addresses.txt"
	walletsFile   = "wallets.txt"
)

// Transfer is one token or ether movement touching an address.
type Transfer struct {
	Time   date.Datetime
	Hash   string
	From   string
	To     string
	Symbol string
	Amount coinfolio.Quantity
	// Fee is the gas burnt by the transaction, in ETH. Only set on
	// transfers sent by the queried address.
	Fee coinfolio.Quantity
}

// Explorer walks addresses on the Ethereum chain.
type Explorer struct {
	APIKey   string
	CacheDir string

	wallets   map[string]bool
	blacklist map[string]bool
	client    *fetchClient
}

// New creates an Explorer caching under dir, reading the API key from
// "etherscan.txt" in keyDir. Previously discovered wallets and blacklisted
// addresses are loaded from the cache.
func New(dir, keyDir string) (*Explorer, error) {
	content, err := os.ReadFile(filepath.Join(keyDir, "etherscan.txt"))
	if err != nil {
		return nil, fmt.Errorf("reading Etherscan API key: %w", err)
	}
	e := &Explorer{
		APIKey:   strings.TrimSpace(string(content)),
		CacheDir: filepath.Join(dir, "explorer"),
	}
	e.wallets = readSet(filepath.Join(e.CacheDir, walletsFile))
	e.blacklist = readSet(filepath.Join(e.CacheDir, blacklistFile))
	return e, nil
}

// Wallets returns the discovered wallet addresses, sorted.
func (e *Explorer) Wallets() []string {
	wallets := make([]string, 0, len(e.wallets))
	for w := range e.wallets {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	return wallets
}

// Discover expands the seed addresses into the full set of connected
// wallets and persists the result. An address whose transfer list exceeds
// the contract threshold is blacklisted instead of followed.
func (e *Explorer) Discover(seeds ...string) ([]string, error) {
	for _, seed := range seeds {
		if err := e.search(strings.ToLower(seed)); err != nil {
			return nil, err
		}
	}
	if err := e.persist(); err != nil {
		return nil, err
	}
	return e.Wallets(), nil
}

func (e *Explorer) search(addr string) error {
	if e.wallets[addr] || e.blacklist[addr] {
		return nil
	}
	log.Printf("exploring %s", addr)

	transfers, err := e.TokenTransfers(addr)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		return nil
	}
	if len(transfers) > contractThreshold {
		log.Printf("blacklisting %s: %d transfers", addr, len(transfers))
		e.blacklist[addr] = true
		return nil
	}
	e.wallets[addr] = true

	for _, t := range transfers {
		if err := e.search(t.From); err != nil {
			return err
		}
		if err := e.search(t.To); err != nil {
			return err
		}
	}
	return nil
}

// TokenTransfers lists the ERC-20 transfers touching an address, oldest
// first.
func (e *Explorer) TokenTransfers(addr string) ([]Transfer, error) {
	raw, err := e.list("tokentx", addr)
	if err != nil {
		return nil, err
	}
	transfers := make([]Transfer, 0, len(raw))
	for _, r := range raw {
		t, err := r.transfer(addr)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", r.Hash, err)
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

// Transactions lists the normal (ether) transactions of an address, oldest
// first.
func (e *Explorer) Transactions(addr string) ([]Transfer, error) {
	raw, err := e.list("txlist", addr)
	if err != nil {
		return nil, err
	}
	transfers := make([]Transfer, 0, len(raw))
	for _, r := range raw {
		r.TokenSymbol = "ETH"
		r.TokenDecimal = "18"
		t, err := r.transfer(addr)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", r.Hash, err)
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

// rawTransfer mirrors one entry of an Etherscan account listing.
type rawTransfer struct {
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal string `json:"tokenDecimal"`
	GasUsed      string `json:"gasUsed"`
	GasPrice     string `json:"gasPrice"`
}

func (r rawTransfer) transfer(addr string) (Transfer, error) {
	seconds, err := strconv.ParseInt(r.TimeStamp, 10, 64)
	if err != nil {
		return Transfer{}, fmt.Errorf("bad timestamp %q", r.TimeStamp)
	}
	value, err := decimal.NewFromString(r.Value)
	if err != nil {
		return Transfer{}, fmt.Errorf("bad value %q", r.Value)
	}
	decimals, err := strconv.Atoi(r.TokenDecimal)
	if err != nil {
		return Transfer{}, fmt.Errorf("bad token decimals %q", r.TokenDecimal)
	}

	t := Transfer{
		Time:   date.FromUnix(seconds),
		Hash:   r.Hash,
		From:   strings.ToLower(r.From),
		To:     strings.ToLower(r.To),
		Symbol: r.TokenSymbol,
		Amount: coinfolio.Q(value.Shift(int32(-decimals))),
	}
	if t.From == strings.ToLower(addr) {
		t.Fee = gas(r)
	}
	return t, nil
}

// gas computes the ETH burnt by a transaction from its gas figures, which
// Etherscan reports in wei.
func gas(r rawTransfer) coinfolio.Quantity {
	used, err1 := decimal.NewFromString(r.GasUsed)
	price, err2 := decimal.NewFromString(r.GasPrice)
	if err1 != nil || err2 != nil {
		return coinfolio.Q(0)
	}
	return coinfolio.Q(used.Mul(price).Shift(-18))
}

func (e *Explorer) list(action, addr string) ([]rawTransfer, error) {
	if e.client == nil {
		e.client = &fetchClient{}
	}
	addrURL := fmt.Sprintf("%s?module=account&action=%s&address=%s&sort=asc&apikey=%s",
		apiURL, action, url.QueryEscape(addr), url.QueryEscape(e.APIKey))
	return e.client.list(addrURL)
}

// fetchClient separates the HTTP round trip so tests can stub it.
type fetchClient struct {
	stub func(addr string) ([]rawTransfer, error)
}

func (c *fetchClient) list(addr string) ([]rawTransfer, error) {
	if c.stub != nil {
		return c.stub(addr)
	}
	var response struct {
		Status  string        `json:"status"`
		Message string        `json:"message"`
		Result  []rawTransfer `json:"result"`
	}
	if err := fetch.JSON(fetch.Daily(), addr, &response); err != nil {
		return nil, err
	}
	// Status "0" with "No transactions found" is an empty result, not an
	// error.
	if response.Status == "0" && len(response.Result) == 0 {
		return nil, nil
	}
	return response.Result, nil
}

func (e *Explorer) persist() error {
	if err := os.MkdirAll(e.CacheDir, 0755); err != nil {
		return err
	}
	if err := writeSet(filepath.Join(e.CacheDir, walletsFile), e.wallets); err != nil {
		return err
	}
	return writeSet(filepath.Join(e.CacheDir, blacklistFile), e.blacklist)
}

func readSet(name string) map[string]bool {
	set := map[string]bool{}
	content, err := os.ReadFile(name)
	if err != nil {
		return set
	}
	for _, line := range strings.Split(string(content), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			set[line] = true
		}
	}
	return set
}

func writeSet(name string, set map[string]bool) error {
	lines := make([]string, 0, len(set))
	for s := range set {
		lines = append(lines, s)
	}
	sort.Strings(lines)
	return os.WriteFile(name, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
