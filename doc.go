// Package coinfolio reconciles crypto trade histories from several brokers
// into a single ledger and computes what the tax office and the owner both
// want to know: what was paid, what was received, and what of it is taxable.
//
// The core functionalities include:
//   - Ledger Management: Recording all trade events (buys, sells, fees) in a
//     chronological, deduplicated record, persisted as human-readable JSONL.
//   - Currency Unification: Converting every event to a single reference
//     currency, splitting crypto-to-crypto swaps into two synthetic legs so
//     the matching engine only ever sees reference-quoted trades.
//   - Realized Profits: Matching every sell against the earliest remaining
//     buy lots of the same asset (FIFO) and computing the realized profit
//     per sell, with the taxable share under the one-year holding rule.
//   - Aggregation: Summing the whole history per asset and per broker into
//     the portfolio and fee reports.
//
// This package serves as the foundational logic for the `cfo` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package coinfolio
