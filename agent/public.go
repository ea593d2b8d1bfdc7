package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// LedgerFile is the ledger the accountant's tools read. The cmd package
// points it at the application's configured ledger before starting a session.
var LedgerFile = "ledger.jsonl"

// Reference is the currency every figure is reported in.
var Reference = "USD"

// UnifiedEvents loads the ledger and returns its events with every pair
// quoted in the reference currency. The default reads LedgerFile as-is; the
// cmd package installs the rate-converting pipeline it configured from flags.
var UnifiedEvents = func() ([]coinfolio.Event, error) {
	ledger, err := DecodeLedger()
	if err != nil {
		return nil, err
	}
	return ledger.Snapshot(), nil
}

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skills from the Tools and ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to understand his crypto holdings: what he owns, what he realized,
			what his tax bill looks like, and what is happening on the markets for his coins.

			Devise a plan of questions to ask each expert and come up with the best response to the user's request.

			The user will assume that you know his coins, check the portfolio first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewAnalyst returns the market analyst expert, grounded on Google Search.
func NewAnalyst() *Expert {
	return &Expert{
		Name: "Analyst",
		Description: `This is a crypto market analyst,
		very well aware of coins, tokens, exchanges and on-chain ecosystems,
		and of the latest news about them.
		Ask the Analyst whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert crypto market analyst. You can search and find about anything related to
			coins, tokens, exchanges, protocols and markets. You leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAccountant returns the accountant expert, whose tools compute reports
// over the user's ledger.
func NewAccountant() *Expert {
	lib := []Function{Portfolio, Profits, Fees}

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He is in charge of reading the user's trade ledger.
		He can compute the aggregated portfolio, the realized profits with their taxable share,
		and the fees paid per broker.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's crypto trade ledger.
				You know how to use the Tools to extract relevant information about the user's holdings and gains.
				You are part of a team of experts, yours is everything recorded in the ledger. They might ask
				you questions in approximative language, figure out what they meant.

				Use the available tools to get information about
				  - the aggregated portfolio per asset
				  - the realized profits and their taxable share
				  - the fees paid per broker
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// report wraps a markdown-producing computation into a FunctionResponse.
func report(name string, fn func() (string, error)) func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
		out, err := fn()
		if err != nil {
			return &genai.FunctionResponse{
				ID:   id,
				Name: name,
				Response: map[string]any{
					"error": err.Error(),
				},
			}
		}
		return &genai.FunctionResponse{
			ID:   id,
			Name: name,
			Response: map[string]any{
				"output": out,
			},
		}
	}
}

// Portfolio renders the aggregated portfolio view.
var Portfolio = &Func{
	Decl: &genai.FunctionDeclaration{
		Name: "Portfolio",
		Description: `Portfolio aggregates the whole ledger per asset: money put in, money taken out,
		realized profit and loss, remaining position size and the fees paid overall.
		All figures are in the reference currency.`,
		Parameters: &genai.Schema{Type: genai.TypeObject},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "A markdown report with the key figures, one row per asset, and the fee drag per broker.",
		},
	},
	Func: report("Portfolio", func() (string, error) {
		events, err := UnifiedEvents()
		if err != nil {
			return "", err
		}
		profits := coinfolio.RealizedProfits(events, coinfolio.DefaultTaxRule)
		p, err := coinfolio.NewPortfolioReport(Reference, events, profits, nil)
		if err != nil {
			return "", err
		}
		return renderer.PortfolioMarkdown(p), nil
	}),
}

// Profits renders the realized profits, one record per sell.
var Profits = &Func{
	Decl: &genai.FunctionDeclaration{
		Name: "Profits",
		Description: `Profits matches every sell against the earliest remaining buy lots of the same asset
		and lists the realized profit of each sell, with the share that is taxable under the one-year
		holding-period rule.`,
		Parameters: &genai.Schema{Type: genai.TypeObject},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "A markdown table of realized profits with a totals row.",
		},
	},
	Func: report("Profits", func() (string, error) {
		events, err := UnifiedEvents()
		if err != nil {
			return "", err
		}
		profits := coinfolio.RealizedProfits(events, coinfolio.DefaultTaxRule)
		return renderer.ProfitsMarkdown(profits, Reference), nil
	}),
}

// Fees renders the fee drag per broker.
var Fees = &Func{
	Decl: &genai.FunctionDeclaration{
		Name: "Fees",
		Description: `Fees sums, per broker, the funds moved and the fees paid, and reports the fee
		percentage. Brokers are listed cheapest first.`,
		Parameters: &genai.Schema{Type: genai.TypeObject},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "A markdown table of brokers with their fee percentage.",
		},
	},
	Func: report("Fees", func() (string, error) {
		events, err := UnifiedEvents()
		if err != nil {
			return "", err
		}
		profits := coinfolio.RealizedProfits(events, coinfolio.DefaultTaxRule)
		p, err := coinfolio.NewPortfolioReport(Reference, events, profits, nil)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		renderer.FeesMarkdown(&b, p.Fees)
		if b.Len() == 0 {
			return "No fees recorded yet.", nil
		}
		return b.String(), nil
	}),
}

// DecodeLedger decodes the ledger from LedgerFile.
// If the file does not exist, it returns a new empty ledger.
func DecodeLedger() (*coinfolio.Ledger, error) {
	f, err := os.Open(LedgerFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return coinfolio.NewLedger(), nil
		}
		return nil, fmt.Errorf("could not open ledger file %q: %w", LedgerFile, err)
	}
	defer f.Close()

	ledger, err := coinfolio.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", LedgerFile, err)
	}
	return ledger, nil
}
