// =============================================================================
// Wave Sales Export - Paginator
// =============================================================================
//
// The paginator walks every page of a business's invoice collection, strictly
// in ascending page order, and concatenates the invoices.
//
// ALGORITHM:
//   1. Fetch page 1 and read totalPages / totalCount from its pageInfo.
//   2. Report progress.
//   3. Fetch pages 2..totalPages one after another, reporting after each.
//   4. Return all invoices in page order, each page in edge order.
//
// Pages are never fetched concurrently: progress reporting and output order
// both depend on the sequence. A failure on any page discards everything
// fetched so far.
//
// =============================================================================

package paginator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ginjaninja78/wave-sales-export/internal/types"
	"github.com/rs/zerolog"
)

// PageFetcher issues a single page request. client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, businessID string, page, pageSize int) (*types.PageResult, error)
}

// Progress is reported once per fetched page.
type Progress struct {
	// Page is the page just fetched (1-indexed).
	Page int

	// TotalPages is the page count declared by the first page.
	TotalPages int

	// Fetched is the cumulative invoice count: min(Page*PageSize, TotalCount).
	Fetched int

	// TotalCount is the invoice count declared by the first page.
	TotalCount int
}

// ProgressFunc receives progress notifications. It may be nil.
type ProgressFunc func(Progress)

// Config holds the paginator settings.
type Config struct {
	BusinessID string
	PageSize   int
}

// Paginator fetches all invoices of one business.
type Paginator struct {
	fetcher    PageFetcher
	businessID string
	pageSize   int
	progress   ProgressFunc
	logger     zerolog.Logger
}

// New builds a Paginator.
func New(fetcher PageFetcher, cfg Config, progress ProgressFunc, logger zerolog.Logger) (*Paginator, error) {
	if fetcher == nil {
		return nil, errors.New("paginator: fetcher is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("paginator: page size must be positive, got %d", cfg.PageSize)
	}
	return &Paginator{
		fetcher:    fetcher,
		businessID: cfg.BusinessID,
		pageSize:   cfg.PageSize,
		progress:   progress,
		logger:     logger.With().Str("component", "paginator").Logger(),
	}, nil
}

// FetchAllInvoices returns every invoice of the business in page order.
func (p *Paginator) FetchAllInvoices(ctx context.Context) ([]types.Invoice, error) {
	first, err := p.fetcher.FetchPage(ctx, p.businessID, 1, p.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page 1: %w", err)
	}

	totalPages := first.PageInfo.TotalPages
	totalCount := first.PageInfo.TotalCount
	p.report(1, totalPages, totalCount)

	invoices := make([]types.Invoice, 0, initialCapacity(len(first.Invoices), totalPages))
	invoices = append(invoices, first.Invoices...)

	for page := 2; page <= totalPages; page++ {
		result, err := p.fetcher.FetchPage(ctx, p.businessID, page, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d of %d: %w", page, totalPages, err)
		}
		invoices = append(invoices, result.Invoices...)
		p.report(page, totalPages, totalCount)
	}

	p.logger.Debug().
		Int("pages", max(totalPages, 1)).
		Int("invoices", len(invoices)).
		Int("declared_total", totalCount).
		Msg("fetched all invoice pages")

	if len(invoices) != totalCount {
		p.logger.Warn().
			Int("invoices", len(invoices)).
			Int("declared_total", totalCount).
			Msg("invoice count differs from declared total")
	}

	return invoices, nil
}

// maxPrealloc bounds the up-front slice allocation. The declared totals come
// from the server and are not trusted for sizing.
const maxPrealloc = 10_000

// initialCapacity estimates the result size from the first page.
func initialCapacity(firstPageLen, totalPages int) int {
	if totalPages <= 1 || firstPageLen == 0 {
		return firstPageLen
	}
	if totalPages > maxPrealloc/firstPageLen {
		return maxPrealloc
	}
	return firstPageLen * totalPages
}

func (p *Paginator) report(page, totalPages, totalCount int) {
	if p.progress == nil {
		return
	}
	p.progress(Progress{
		Page:       page,
		TotalPages: totalPages,
		Fetched:    min(page*p.pageSize, totalCount),
		TotalCount: totalCount,
	})
}
