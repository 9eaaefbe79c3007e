// Package ledger implements the Solana JSON-RPC client used for
// settlement verification.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync/atomic"

	"solana-vend-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SolanaClient talks to a Solana RPC node over JSON-RPC 2.0.
type SolanaClient struct {
	rpcURL     string
	commitment string
	httpClient HTTPClient
	log        zerolog.Logger
	reqID      atomic.Int64
}

// NewSolanaClient creates a client for the given RPC endpoint. Commitment
// applies to every query issued through the client.
func NewSolanaClient(rpcURL, commitment string, httpClient HTTPClient, log zerolog.Logger) *SolanaClient {
	return &SolanaClient{
		rpcURL:     rpcURL,
		commitment: commitment,
		httpClient: httpClient,
		log:        log,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type signatureEntry struct {
	Signature string          `json:"signature"`
	Memo      *string         `json:"memo"`
	Err       json.RawMessage `json:"err"`
}

type transactionResult struct {
	Meta *struct {
		Err          json.RawMessage `json:"err"`
		PreBalances  []uint64        `json:"preBalances"`
		PostBalances []uint64        `json:"postBalances"`
		LogMessages  []string        `json:"logMessages"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []struct {
				Pubkey string `json:"pubkey"`
			} `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// SignaturesForAddress returns the most recent confirmed signatures
// involving address, newest first.
func (c *SolanaClient) SignaturesForAddress(ctx context.Context, address string, limit int) ([]ports.SignatureInfo, error) {
	params := []any{address, map[string]any{
		"limit":      limit,
		"commitment": c.commitment,
	}}

	var entries []signatureEntry
	if err := c.call(ctx, "getSignaturesForAddress", params, &entries); err != nil {
		return nil, err
	}

	infos := make([]ports.SignatureInfo, 0, len(entries))
	for _, e := range entries {
		info := ports.SignatureInfo{
			Signature: e.Signature,
			Err:       len(e.Err) > 0 && string(e.Err) != "null",
		}
		if e.Memo != nil {
			info.Memo = *e.Memo
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// TransactionDetail fetches a transaction and reports the memo text and
// the lamports credited to recipient by it.
func (c *SolanaClient) TransactionDetail(ctx context.Context, signature, recipient string) (ports.TransactionDetail, error) {
	params := []any{signature, map[string]any{
		"encoding":                       "jsonParsed",
		"commitment":                     c.commitment,
		"maxSupportedTransactionVersion": 0,
	}}

	var tx transactionResult
	if err := c.call(ctx, "getTransaction", params, &tx); err != nil {
		return ports.TransactionDetail{}, err
	}

	detail := ports.TransactionDetail{Signature: signature}
	if tx.Meta == nil {
		return detail, nil
	}

	detail.Memo = memoFromLogs(tx.Meta.LogMessages)

	for i, key := range tx.Transaction.Message.AccountKeys {
		if key.Pubkey != recipient {
			continue
		}
		if i < len(tx.Meta.PreBalances) && i < len(tx.Meta.PostBalances) {
			if post, pre := tx.Meta.PostBalances[i], tx.Meta.PreBalances[i]; post > pre {
				detail.ReceivedLamports = post - pre
			}
		}
		break
	}
	return detail, nil
}

func (c *SolanaClient) call(ctx context.Context, method string, params []any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.reqID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("ledger: marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ledger: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger: %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ledger: read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger: %s returned status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("ledger: decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("ledger: %s failed: %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("ledger: decode %s result: %w", method, err)
	}
	return nil
}

var memoLogRe = regexp.MustCompile(`^Program log: Memo \(len \d+\): "(.*)"$`)

func memoFromLogs(logs []string) string {
	for _, line := range logs {
		if m := memoLogRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}
