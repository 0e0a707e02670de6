package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/wave-sales-export/internal/client"
	"github.com/ginjaninja78/wave-sales-export/internal/config"
	"github.com/ginjaninja78/wave-sales-export/internal/exporter"
	"github.com/ginjaninja78/wave-sales-export/internal/validation"
)

var fixedNow = time.Date(2024, time.March, 5, 14, 30, 9, 0, time.UTC)

// invoiceNodes: two invoices, three line items. Invoice 1002 is dated first.
var invoiceNodes = []string{
	`{"createdAt": "2024-03-01T10:00:00Z", "invoiceNumber": "1001", "invoiceDate": "2024-03-01",
	  "dueDate": "2024-03-31", "total": {"value": "34.00"},
	  "customer": {"name": "Corner Shop",
	    "address": {"addressLine1": "1 Main St", "city": "Portland", "postalCode": "97201"}},
	  "items": [
	    {"product": {"id": "P1", "name": "Pinot"}, "quantity": 2, "price": "12.50",
	     "taxes": [{"amount": {"value": "1.25"}, "salesTax": {"id": "T1", "name": "Multnomah"}}]},
	    {"product": {"id": "P2", "name": "Rose"}, "quantity": "1", "price": 9,
	     "taxes": []}
	  ]}`,
	`{"createdAt": "2024-02-20T10:00:00Z", "invoiceNumber": "1002", "invoiceDate": "2024-02-20",
	  "dueDate": "2024-03-20", "total": {"value": "66.00"},
	  "customer": {"name": "Bistro", "shippingDetails": {"address": {"postalCode": "98101"}}},
	  "items": [
	    {"product": {"id": "P1", "name": "Pinot"}, "quantity": 6, "price": "11.00",
	     "taxes": [{"amount": {"value": "6.60"}, "salesTax": {"id": "T2", "name": "King"}}]}
	  ]}`,
}

// waveServer serves invoiceNodes in pages of the requested size.
func waveServer(t *testing.T, nodes []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				BusinessID string `json:"businessId"`
				Page       int    `json:"page"`
				PageSize   int    `json:"pageSize"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "biz-1", req.Variables.BusinessID)

		size := req.Variables.PageSize
		totalPages := (len(nodes) + size - 1) / size
		start := min((req.Variables.Page-1)*size, len(nodes))
		end := min(start+size, len(nodes))

		edges := make([]string, 0, end-start)
		for _, n := range nodes[start:end] {
			edges = append(edges, `{"node": `+n+`}`)
		}
		fmt.Fprintf(w, `{"data": {"business": {"invoices": {
			"pageInfo": {"currentPage": %d, "totalPages": %d, "totalCount": %d},
			"edges": [%s]}}}}`,
			req.Variables.Page, totalPages, len(nodes), strings.Join(edges, ","))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server, dir, v string, pageSize int) *config.Config {
	return &config.Config{
		APIURL:         srv.URL,
		BusinessID:     "biz-1",
		APIToken:       "token",
		PageSize:       pageSize,
		Variant:        v,
		OutputDir:      dir,
		RequestTimeout: 5 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

func newPipeline(cfg *config.Config, out *bytes.Buffer) *Pipeline {
	return New(cfg, Options{Out: out, Now: func() time.Time { return fixedNow }}, zerolog.Nop())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRun_Basic(t *testing.T) {
	dir := t.TempDir()
	srv := waveServer(t, invoiceNodes)
	var out bytes.Buffer

	res, err := newPipeline(testConfig(srv, dir, "basic", 50), &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sales.csv"), res.OutputFile)
	assert.Equal(t, 1, res.Stats.PagesFetched)
	assert.Equal(t, 2, res.Stats.InvoicesFetched)
	assert.Equal(t, 3, res.Stats.RowsWritten)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.SummaryFile)

	assert.Equal(t,
		"Fetched 1 of 1 pages (2/2 invoices total)\n"+
			exporter.RowsWrittenMessage(3, res.OutputFile)+"\n",
		out.String())
	assert.Contains(t, out.String(), "3 rows written to ")

	records := readCSV(t, res.OutputFile)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Product", "Bottles sold", "Price", "Customer", "Invoice #", "Invoice date", "Invoice created"}, records[0])
	// basic keeps API order
	assert.Equal(t, "1001", records[1][4])
	assert.Equal(t, "1001", records[2][4])
	assert.Equal(t, "1002", records[3][4])
	assert.Equal(t, []string{"Rose", "1", "9"}, records[2][:3])

	assert.True(t, res.Stats.LineTotal.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, res.Stats.SalesTaxTotal.Equal(decimal.RequireFromString("7.85")))
}

func TestRun_TaxSortsAndNamesByDate(t *testing.T) {
	dir := t.TempDir()
	srv := waveServer(t, invoiceNodes)
	var out bytes.Buffer

	res, err := newPipeline(testConfig(srv, dir, "tax", 1), &out).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tax-sales-2024-03-05.csv"), res.OutputFile)
	assert.Equal(t, 2, res.Stats.PagesFetched)
	assert.Contains(t, out.String(), "Fetched 1 of 2 pages (1/2 invoices total)\n")
	assert.Contains(t, out.String(), "Fetched 2 of 2 pages (2/2 invoices total)\n")

	records := readCSV(t, res.OutputFile)
	require.Len(t, records, 4)
	dateCol := indexOf(records[0], "Invoice date")
	require.GreaterOrEqual(t, dateCol, 0)
	assert.Equal(t, "2024-02-20", records[1][dateCol])
	assert.Equal(t, "2024-03-01", records[2][dateCol])
	assert.Equal(t, "2024-03-01", records[3][dateCol])

	taxCol := indexOf(records[0], "Sales tax amount")
	require.GreaterOrEqual(t, taxCol, 0)
	assert.Equal(t, "6.60", records[1][taxCol])
	assert.Equal(t, "", records[3][taxCol], "item without tax leaves the cell empty")
}

func TestRun_EmptyBusiness(t *testing.T) {
	dir := t.TempDir()
	srv := waveServer(t, nil)
	var out bytes.Buffer

	_, err := newPipeline(testConfig(srv, dir, "basic", 50), &out).Run(context.Background())
	require.ErrorIs(t, err, exporter.ErrNoData)
	assert.NoFileExists(t, filepath.Join(dir, "sales.csv"))
}

func TestRun_MultipleTaxesAbortsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	node := `{"invoiceNumber": "9", "invoiceDate": "2024-01-01", "customer": {"name": "X"},
	  "items": [{"product": {"name": "Pinot"}, "quantity": 1, "price": "1",
	    "taxes": [{"amount": {"value": "0.1"}, "salesTax": {"name": "A"}},
	              {"amount": {"value": "0.2"}, "salesTax": {"name": "B"}}]}]}`
	srv := waveServer(t, []string{node})
	var out bytes.Buffer

	_, err := newPipeline(testConfig(srv, dir, "tax", 50), &out).Run(context.Background())
	var multi *validation.MultipleTaxesError
	require.ErrorAs(t, err, &multi)
	assert.Equal(t, "9", multi.InvoiceNumber)
	assert.NoFileExists(t, filepath.Join(dir, "tax-sales-2024-03-05.csv"))
}

func TestRun_APIErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "Business not found"}]}`)
	}))
	t.Cleanup(srv.Close)

	_, err := newPipeline(testConfig(srv, t.TempDir(), "basic", 50), &bytes.Buffer{}).Run(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "Business not found")
}

func TestRun_CanceledContext(t *testing.T) {
	srv := waveServer(t, invoiceNodes)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(testConfig(srv, t.TempDir(), "basic", 50), &bytes.Buffer{}).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_ArchiveAndSummary(t *testing.T) {
	dir := t.TempDir()
	srv := waveServer(t, invoiceNodes)
	cfg := testConfig(srv, dir, "basic", 50)
	cfg.ArchiveDir = filepath.Join(dir, "archive")
	cfg.WriteSummary = true

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte("old\n"), 0o644))

	res, err := newPipeline(cfg, &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "archive", "2024", "03", "05", "sales.csv"), res.ArchivedFile)
	old, err := os.ReadFile(res.ArchivedFile)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(old))

	require.NotEmpty(t, res.SummaryFile)
	summary, err := os.ReadFile(res.SummaryFile)
	require.NoError(t, err)
	assert.Contains(t, string(summary), res.RunID)
	assert.Contains(t, string(summary), "Rows Written:     3")
	assert.Contains(t, string(summary), "Line Total:       100.00")
	assert.Contains(t, string(summary), "Sales Tax Total:  7.85")
}

func TestRun_OutputTemplateXLSX(t *testing.T) {
	dir := t.TempDir()
	srv := waveServer(t, invoiceNodes)
	cfg := testConfig(srv, dir, "tax", 50)
	cfg.OutputFile = "{variant}-{date}.xlsx"

	res, err := newPipeline(cfg, &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tax-2024-03-05.xlsx"), res.OutputFile)
	assert.FileExists(t, res.OutputFile)
}

func TestRun_OutputTemplateWithSubdirectory(t *testing.T) {
	dir := t.TempDir()
	srv := waveServer(t, invoiceNodes)
	cfg := testConfig(srv, dir, "basic", 50)
	cfg.OutputFile = filepath.Join("reports", "{date}", "sales.csv")

	res, err := newPipeline(cfg, &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "2024-03-05", "sales.csv"), res.OutputFile)
	assert.Len(t, readCSV(t, res.OutputFile), 4)
	assert.NoFileExists(t, filepath.Join(dir, "sales.csv"))
}

func TestRun_NonNumericPriceIsExportedWithWarning(t *testing.T) {
	dir := t.TempDir()
	node := `{"invoiceNumber": "77", "invoiceDate": "2024-01-01", "customer": {"name": "X"},
	  "items": [{"product": {"name": "Gift box"}, "quantity": 1, "price": "N/A", "taxes": []},
	            {"product": {"name": "Sample"}, "quantity": "", "price": "", "taxes": []}]}`
	srv := waveServer(t, []string{node})

	res, err := newPipeline(testConfig(srv, dir, "basic", 50), &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.RowsWritten)

	require.Len(t, res.Issues, 1)
	assert.Equal(t, "price", res.Issues[0].Rule)
	assert.Equal(t, "77", res.Issues[0].InvoiceNumber)

	records := readCSV(t, res.OutputFile)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Gift box", "1", "N/A"}, records[1][:3])
	assert.Equal(t, []string{"Sample", "", ""}, records[2][:3])
	assert.True(t, res.Stats.LineTotal.IsZero())
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
