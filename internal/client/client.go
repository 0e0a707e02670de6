// =============================================================================
// Wave Sales Export - GraphQL Client
// =============================================================================
//
// This module issues one invoice-page request against the Wave public GraphQL
// endpoint and decodes the response into types.PageResult.
//
// REQUEST:
//   POST <endpoint>
//   Authorization: Bearer <token>
//   Content-Type: application/json
//   {"query": <variant document>, "variables": {"businessId", "page", "pageSize"}}
//
// RESPONSE ENVELOPE:
//   data.business.invoices.{pageInfo{currentPage,totalPages,totalCount}, edges[].node}
//
// There is no retry. Any failure is returned to the caller, which aborts the run.
//
// =============================================================================

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ginjaninja78/wave-sales-export/internal/types"
	"github.com/ginjaninja78/wave-sales-export/internal/variant"
	"github.com/rs/zerolog"
)

// DefaultEndpoint is Wave's public GraphQL endpoint.
const DefaultEndpoint = "https://gql.waveapps.com/graphql/public"

// maxBodyBytes caps how much of a response is read. A 100-invoice page with
// tax detail is well under this.
const maxBodyBytes = 32 << 20

// Config holds everything needed to build a Client.
type Config struct {
	// Endpoint defaults to DefaultEndpoint.
	Endpoint string

	// Token is the bearer token sent with every request.
	Token string

	// Variant selects the GraphQL document.
	Variant variant.Variant

	// Timeout applies to the whole HTTP exchange. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout (tests).
	HTTPClient *http.Client
}

// Client executes invoice page queries.
type Client struct {
	endpoint   string
	token      string
	query      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New builds a Client. The logger may be zerolog.Nop().
func New(cfg Config, logger zerolog.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint:   endpoint,
		token:      cfg.Token,
		query:      cfg.Variant.Query(),
		httpClient: httpClient,
		logger:     logger.With().Str("component", "client").Logger(),
	}
}

// =============================================================================
// WIRE STRUCTURES
// =============================================================================

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data *struct {
		Business *struct {
			Invoices *struct {
				PageInfo *types.PageInfo `json:"pageInfo"`
				Edges    []struct {
					Node types.Invoice `json:"node"`
				} `json:"edges"`
			} `json:"invoices"`
		} `json:"business"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchPage requests a single page of the business's invoices.
func (c *Client) FetchPage(ctx context.Context, businessID string, page, pageSize int) (*types.PageResult, error) {
	body, err := json.Marshal(graphQLRequest{
		Query: c.query,
		Variables: map[string]any{
			"businessId": businessID,
			"page":       page,
			"pageSize":   pageSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "build request", URL: c.endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Int("page", page).Int("page_size", pageSize).Msg("requesting invoice page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "POST", URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", URL: c.endpoint, Err: err}
	}

	return decodePage(resp.StatusCode, raw)
}

// decodePage turns a raw response into a PageResult or an APIError.
func decodePage(status int, raw []byte) (*types.PageResult, error) {
	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		apiErr := &APIError{Messages: []string{fmt.Sprintf("invalid JSON response: %v", err)}}
		if status < 200 || status > 299 {
			apiErr.StatusCode = status
			apiErr.Messages = []string{snippet(raw)}
		}
		return nil, apiErr
	}

	if len(gr.Errors) > 0 {
		msgs := make([]string, len(gr.Errors))
		for i, e := range gr.Errors {
			msgs[i] = e.Message
		}
		apiErr := &APIError{Messages: msgs}
		if status < 200 || status > 299 {
			apiErr.StatusCode = status
		}
		return nil, apiErr
	}

	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Messages: []string{snippet(raw)}}
	}

	switch {
	case gr.Data == nil:
		return nil, &APIError{Messages: []string{"response has no data"}}
	case gr.Data.Business == nil:
		return nil, &APIError{Messages: []string{"business not found"}}
	case gr.Data.Business.Invoices == nil:
		return nil, &APIError{Messages: []string{"response has no invoices"}}
	case gr.Data.Business.Invoices.PageInfo == nil:
		return nil, &APIError{Messages: []string{"response has no pageInfo"}}
	}

	inv := gr.Data.Business.Invoices
	result := &types.PageResult{
		Invoices: make([]types.Invoice, len(inv.Edges)),
		PageInfo: *inv.PageInfo,
	}
	for i, edge := range inv.Edges {
		result.Invoices[i] = edge.Node
	}
	return result, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}
