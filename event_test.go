package coinfolio

import (
	"errors"
	"testing"
)

func TestNewEvent_SignConventions(t *testing.T) {
	// NewEvent normalizes unsigned figures: buys have positive size and
	// negative funds, sells the opposite.
	e := NewEvent(at("2024-01-01 10:00:00"), "BTC-USD", Buy, Q(0.5), USD(1000), USD(1), "test")
	if !e.Size.Equal(Q(0.5)) || !e.Funds.Equal(USD(-1000)) {
		t.Errorf("buy = size %s funds %s, want 0.5 / -1000", e.Size, e.Funds)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	e = NewEvent(at("2024-01-01 10:00:00"), "BTC-USD", Sell, Q(0.5), USD(1000), USD(1), "test")
	if !e.Size.Equal(Q(-0.5)) || !e.Funds.Equal(USD(1000)) {
		t.Errorf("sell = size %s funds %s, want -0.5 / 1000", e.Size, e.Funds)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestEventValidate(t *testing.T) {
	valid := buy("2024-01-01 10:00:00", "BTC", 1, -1000)

	cases := []struct {
		name   string
		mutate func(Event) Event
	}{
		{"missing pair", func(e Event) Event { e.Pair = ""; return e }},
		{"bad side", func(e Event) Event { e.Side = "short"; return e }},
		{"zero size", func(e Event) Event { e.Size = Q(0); return e }},
		{"buy negative size", func(e Event) Event { e.Size = Q(-1); return e }},
		{"buy positive funds", func(e Event) Event { e.Funds = USD(1000); return e }},
		{"negative fee", func(e Event) Event { e.Fee = USD(-1); return e }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.mutate(valid).Validate()
			var malformed *MalformedEventError
			if !errors.As(err, &malformed) {
				t.Errorf("Validate() error = %v, want MalformedEventError", err)
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid event = %v", err)
	}
}

func TestEventPrice(t *testing.T) {
	e := sell("2024-01-01 10:00:00", "BTC", 0.5, 20000)
	if !e.Price().Equal(USD(40000)) {
		t.Errorf("Price() = %s, want 40000", e.Price())
	}
	e = buy("2024-01-01 10:00:00", "BTC", 0.5, -20000)
	if !e.Price().Equal(USD(40000)) {
		t.Errorf("Price() = %s, want 40000", e.Price())
	}
}

func TestPair(t *testing.T) {
	p := NewPair("btc", "eur")
	if p != "BTC-EUR" {
		t.Errorf("NewPair() = %q", p)
	}
	if p.Base() != "BTC" || p.Quote() != "EUR" {
		t.Errorf("Base/Quote = %q/%q", p.Base(), p.Quote())
	}
	if got := p.WithQuote("USD"); got != "BTC-USD" {
		t.Errorf("WithQuote() = %q", got)
	}
	if Pair("BTC").Valid() {
		t.Errorf("pair without quote should not be valid")
	}
}
