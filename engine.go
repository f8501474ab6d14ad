package valuation

import (
	"context"
	"time"

	"github.com/etnz/valuation/date"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Engine composes the valuation pipeline: fetch prices, compute metrics, aggregate.
//
// It decides neither when to refresh nor how to display: it turns positions
// and a price source into a Report.
type Engine struct {
	Fetcher *Fetcher
	Ranking RankingKey
	// Now is the clock of the run, time.Now if nil.
	Now func() time.Time
}

// NewEngine returns an engine fetching prices with f.
func NewEngine(f *Fetcher, ranking RankingKey) *Engine {
	return &Engine{Fetcher: f, Ranking: ranking}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Run validates rows, then values every well formed position.
//
// Malformed rows are reported in Report.Rejected, and an empty ledger gives an
// empty report: Run never fails.
func (e *Engine) Run(ctx context.Context, rows []LedgerRow) *Report {
	positions, rejected := ParsePositions(rows)
	for _, r := range rejected {
		log.WithField("line", r.Line).Warnf("rejected ledger row: %v", r.Err)
	}
	report := e.RunPositions(ctx, positions)
	report.Rejected = rejected
	return report
}

// RunPositions values already validated positions.
func (e *Engine) RunPositions(ctx context.Context, positions []Position) *Report {
	now := e.now()
	report := &Report{
		RunID:     uuid.NewString(),
		On:        date.Of(now),
		Generated: now,
		Rows:      []Row{},
	}
	if len(positions) == 0 {
		log.WithField("run", report.RunID).Warn(ErrEmptyLedger)
		report.RankedBy = e.Ranking.Resolve(nil)
		return report
	}

	quotes := e.Fetcher.Fetch(ctx, UniqueSymbols(positions))
	metrics := Calculator{On: report.On}.ComputeAll(positions, quotes)
	report.RankedBy, report.Rows, report.Series = Aggregate(metrics, e.Ranking)
	report.Faults = quotes.Faults()

	log.WithFields(log.Fields{
		"run":       report.RunID,
		"positions": len(positions),
		"rankedBy":  report.RankedBy,
	}).Info("valuation report computed")
	return report
}
