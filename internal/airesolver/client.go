package airesolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/reconcile/internal/merge"
	"github.com/dusk-indust/reconcile/internal/semantic"
)

// Compile-time interface check.
var _ merge.AIResolver = (*Client)(nil)

// Client implements merge.AIResolver over HTTP/JSON-RPC against a resolver
// agent endpoint. Every attempted call counts as one AI call even when the
// transport or the agent fails, so the orchestrator's accounting stays
// accurate.
type Client struct {
	endpoint  string
	http      *http.Client
	requestID atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a resolver agent client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveParams is the conflict/resolve request payload.
type resolveParams struct {
	FilePath  string                  `json:"filePath"`
	Baseline  string                  `json:"baseline"`
	Snapshots []semantic.TaskSnapshot `json:"snapshots"`
	Region    merge.ConflictRegion    `json:"region"`
}

// ResolveConflict asks the resolver agent to merge one conflict region.
// On failure it still returns a result carrying the attempted call count so
// the caller can accumulate usage.
func (c *Client) ResolveConflict(
	ctx context.Context,
	filePath, baseline string,
	snapshots []semantic.TaskSnapshot,
	region merge.ConflictRegion,
) (*merge.MergeResult, error) {
	params := resolveParams{
		FilePath:  filePath,
		Baseline:  baseline,
		Snapshots: snapshots,
		Region:    region,
	}

	var result merge.MergeResult
	if err := c.call(ctx, MethodResolveConflict, params, &result); err != nil {
		return &merge.MergeResult{
			Decision: merge.DecisionFailed,
			FilePath: filePath,
			AICalls:  1,
			Error:    err.Error(),
		}, err
	}

	if result.AICalls < 1 {
		result.AICalls = 1
	}
	return &result, nil
}

// nextID returns a monotonically increasing request ID for JSON-RPC calls.
func (c *Client) nextID() int64 {
	return c.requestID.Add(1)
}

// call performs a JSON-RPC 2.0 call over HTTP POST.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("airesolver: marshal params: %w", err)
	}

	rpcReq := JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      c.nextID(),
		Method:  method,
		Params:  paramsJSON,
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return fmt.Errorf("airesolver: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("airesolver: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("airesolver: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("airesolver: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("airesolver: %s: HTTP %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("airesolver: decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("airesolver: decode result: %w", err)
		}
	}

	return nil
}

// RPCError represents a JSON-RPC error returned by the resolver agent.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("airesolver: %s: rpc error %d: %s (data: %s)", e.Method, e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("airesolver: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}
