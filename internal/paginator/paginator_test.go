package paginator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/wave-sales-export/internal/client"
	"github.com/ginjaninja78/wave-sales-export/internal/types"
)

// fakeFetcher serves pre-built pages and records every call.
type fakeFetcher struct {
	pages  []types.PageResult
	failOn int
	err    error
	calls  []int
}

func (f *fakeFetcher) FetchPage(_ context.Context, businessID string, page, pageSize int) (*types.PageResult, error) {
	f.calls = append(f.calls, page)
	if page == f.failOn {
		return nil, f.err
	}
	if page < 1 || page > len(f.pages) {
		return nil, fmt.Errorf("unexpected page %d", page)
	}
	p := f.pages[page-1]
	return &p, nil
}

// buildPages splits total invoices into pages of pageSize.
func buildPages(total, pageSize int) []types.PageResult {
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		return []types.PageResult{{PageInfo: types.PageInfo{CurrentPage: 1, TotalPages: 0, TotalCount: 0}}}
	}
	pages := make([]types.PageResult, totalPages)
	n := 0
	for i := range pages {
		pages[i].PageInfo = types.PageInfo{CurrentPage: i + 1, TotalPages: totalPages, TotalCount: total}
		for j := 0; j < pageSize && n < total; j++ {
			n++
			pages[i].Invoices = append(pages[i].Invoices, types.Invoice{InvoiceNumber: fmt.Sprintf("INV-%03d", n)})
		}
	}
	return pages
}

func newPaginator(t *testing.T, f PageFetcher, pageSize int, progress ProgressFunc) *Paginator {
	t.Helper()
	p, err := New(f, Config{BusinessID: "biz", PageSize: pageSize}, progress, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestFetchAllInvoices_ConcatenatesPagesInOrder(t *testing.T) {
	f := &fakeFetcher{pages: buildPages(7, 3)}
	var progress []Progress
	p := newPaginator(t, f, 3, func(pr Progress) { progress = append(progress, pr) })

	invoices, err := p.FetchAllInvoices(context.Background())
	require.NoError(t, err)

	require.Len(t, invoices, 7)
	for i, inv := range invoices {
		assert.Equal(t, fmt.Sprintf("INV-%03d", i+1), inv.InvoiceNumber)
	}
	assert.Equal(t, []int{1, 2, 3}, f.calls)
	assert.Equal(t, []Progress{
		{Page: 1, TotalPages: 3, Fetched: 3, TotalCount: 7},
		{Page: 2, TotalPages: 3, Fetched: 6, TotalCount: 7},
		{Page: 3, TotalPages: 3, Fetched: 7, TotalCount: 7},
	}, progress)
}

func TestFetchAllInvoices_SinglePageFetchesOnce(t *testing.T) {
	f := &fakeFetcher{pages: buildPages(4, 50)}
	var progress []Progress
	p := newPaginator(t, f, 50, func(pr Progress) { progress = append(progress, pr) })

	invoices, err := p.FetchAllInvoices(context.Background())
	require.NoError(t, err)

	assert.Len(t, invoices, 4)
	assert.Equal(t, []int{1}, f.calls)
	require.Len(t, progress, 1)
	assert.Equal(t, 4, progress[0].Fetched)
}

func TestFetchAllInvoices_EmptyBusiness(t *testing.T) {
	f := &fakeFetcher{pages: buildPages(0, 50)}
	p := newPaginator(t, f, 50, nil)

	invoices, err := p.FetchAllInvoices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Equal(t, []int{1}, f.calls)
}

func TestFetchAllInvoices_ZeroInvoicesOnePage(t *testing.T) {
	f := &fakeFetcher{pages: []types.PageResult{
		{PageInfo: types.PageInfo{CurrentPage: 1, TotalPages: 1, TotalCount: 0}},
	}}
	p := newPaginator(t, f, 50, nil)

	invoices, err := p.FetchAllInvoices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestFetchAllInvoices_OversizedDeclaredTotal(t *testing.T) {
	f := &fakeFetcher{pages: []types.PageResult{
		{PageInfo: types.PageInfo{CurrentPage: 1, TotalPages: 1, TotalCount: 1 << 62}},
	}}
	var got []Progress
	p := newPaginator(t, f, 50, func(pr Progress) { got = append(got, pr) })

	var invoices []types.Invoice
	var err error
	require.NotPanics(t, func() {
		invoices, err = p.FetchAllInvoices(context.Background())
	})
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Equal(t, []Progress{{Page: 1, TotalPages: 1, Fetched: 50, TotalCount: 1 << 62}}, got)
}

func TestFetchAllInvoices_OversizedDeclaredPages(t *testing.T) {
	f := &fakeFetcher{pages: []types.PageResult{{
		Invoices: []types.Invoice{{InvoiceNumber: "1"}},
		PageInfo: types.PageInfo{CurrentPage: 1, TotalPages: 1 << 40, TotalCount: 1 << 40},
	}}}
	p := newPaginator(t, f, 1, nil)

	var err error
	require.NotPanics(t, func() {
		_, err = p.FetchAllInvoices(context.Background())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected page 2")
}

func TestInitialCapacity(t *testing.T) {
	assert.Equal(t, 0, initialCapacity(0, 1<<40))
	assert.Equal(t, 50, initialCapacity(50, 1))
	assert.Equal(t, 50, initialCapacity(50, 0))
	assert.Equal(t, 150, initialCapacity(50, 3))
	assert.Equal(t, maxPrealloc, initialCapacity(50, 1<<40))
	assert.Equal(t, maxPrealloc, initialCapacity(1<<20, 2))
}

func TestFetchAllInvoices_FailureDiscardsPartialResult(t *testing.T) {
	apiErr := &client.APIError{Messages: []string{"boom"}}
	f := &fakeFetcher{pages: buildPages(10, 2), failOn: 3, err: apiErr}
	p := newPaginator(t, f, 2, nil)

	invoices, err := p.FetchAllInvoices(context.Background())
	require.Error(t, err)
	assert.Nil(t, invoices)
	assert.Equal(t, []int{1, 2, 3}, f.calls)

	var target *client.APIError
	assert.ErrorAs(t, err, &target)
	assert.Contains(t, err.Error(), "page 3 of 5")
}

func TestFetchAllInvoices_FirstPageFailure(t *testing.T) {
	cause := errors.New("connection refused")
	transportErr := &client.TransportError{Op: "POST", URL: "http://x", Err: cause}
	f := &fakeFetcher{failOn: 1, err: transportErr}
	p := newPaginator(t, f, 50, nil)

	_, err := p.FetchAllInvoices(context.Background())
	assert.ErrorIs(t, err, cause)
	var target *client.TransportError
	assert.ErrorAs(t, err, &target)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{PageSize: 10}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(&fakeFetcher{}, Config{PageSize: 0}, nil, zerolog.Nop())
	assert.Error(t, err)
}
