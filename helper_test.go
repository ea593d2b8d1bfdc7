package coinfolio

import "github.com/etnz/coinfolio/date"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// at is a helper for test to parse a datetime from const
func at(s string) date.Datetime { return date.MustParseDatetime(s) }

// buy is a helper for test to create a valid buy event on ASSET-USD.
func buy(t, asset string, size float64, funds float64) Event {
	return NewEvent(at(t), NewPair(asset, "USD"), Buy, Q(size), USD(funds), USD(0), "test")
}

// sell is a helper for test to create a valid sell event on ASSET-USD.
func sell(t, asset string, size float64, funds float64) Event {
	return NewEvent(at(t), NewPair(asset, "USD"), Sell, Q(size), USD(funds), USD(0), "test")
}
