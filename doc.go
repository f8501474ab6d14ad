// Package valuation values a ledger of brokerage positions, equities and
// options, at their latest closing price.
//
// The engine is a forward pipeline of three stages:
//   - Fetcher: resolves the latest closing price of each distinct symbol
//     through a QuoteProvider. Failures are isolated per symbol and recorded
//     as missing quotes, never raised.
//   - Calculator: derives PositionMetrics from a position and its quote:
//     current value, gain/loss and, for options, strike relative and
//     annualized returns.
//   - Aggregate: ranks the metrics into a summary and reshapes them into
//     chart-ready series.
//
// Every derived number is a Value: an exact decimal or Missing. Missing
// propagates through arithmetic and ratios over a zero cost are Missing, so
// nothing is ever silently turned into zero.
//
// Reading ledger files, quote provider implementations and rendering live in
// their own packages (ledger, eodhd, polygon, yahoo, renderer), the engine
// returns plain data.
package valuation
