package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// JSONRPCRequest represents a JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// StartMockEthRPC serves chain over JSON-RPC so ethclient and rpc.Client can
// talk to it. Batch requests are supported. The server is closed on cleanup.
func StartMockEthRPC(t *testing.T, chain *FakeChain) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			var reqs []JSONRPCRequest
			if err := json.Unmarshal(body, &reqs); err != nil {
				WriteRPCError(w, json.RawMessage(`null`), -32700, "parse error")
				return
			}
			out := make([]json.RawMessage, len(reqs))
			for i, req := range reqs {
				var buf bytes.Buffer
				handleRPC(r.Context(), &buf, chain, req)
				out[i] = json.RawMessage(bytes.TrimSpace(buf.Bytes()))
			}
			_ = json.NewEncoder(w).Encode(out)
			return
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(body, &req); err != nil {
			WriteRPCError(w, json.RawMessage(`1`), -32700, "parse error")
			return
		}
		handleRPC(r.Context(), w, chain, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func handleRPC(ctx context.Context, w io.Writer, chain *FakeChain, req JSONRPCRequest) {
	switch req.Method {
	case "eth_chainId":
		result, _ := json.Marshal(hexutil.EncodeBig(big.NewInt(chain.ID)))
		WriteRPCResult(w, req.ID, result)

	case "net_version":
		result, _ := json.Marshal(strconv.FormatInt(chain.ID, 10))
		WriteRPCResult(w, req.ID, result)

	case "eth_call":
		msg, ok := parseEthCall(req.Params)
		if !ok {
			WriteRPCError(w, req.ID, -32602, "invalid params")
			return
		}
		ret, err := chain.CallContract(ctx, msg, nil)
		if err != nil {
			WriteRPCError(w, req.ID, 3, err.Error())
			return
		}
		result, _ := json.Marshal(hexutil.Encode(ret))
		WriteRPCResult(w, req.ID, result)

	default:
		WriteRPCError(w, req.ID, -32601, "method not found: "+req.Method)
	}
}

// parseEthCall decodes the call object of an eth_call. go-ethereum may send
// the calldata as "input" or "data".
func parseEthCall(params json.RawMessage) (ethereum.CallMsg, bool) {
	var p []json.RawMessage
	if err := json.Unmarshal(params, &p); err != nil || len(p) < 1 {
		return ethereum.CallMsg{}, false
	}
	var call struct {
		To    *common.Address `json:"to"`
		Input hexutil.Bytes   `json:"input"`
		Data  hexutil.Bytes   `json:"data"`
	}
	if err := json.Unmarshal(p[0], &call); err != nil || call.To == nil {
		return ethereum.CallMsg{}, false
	}
	data := call.Input
	if len(data) == 0 {
		data = call.Data
	}
	return ethereum.CallMsg{To: call.To, Data: data}, true
}

// WriteRPCResult writes a JSON-RPC success response.
func WriteRPCResult(w io.Writer, id, result json.RawMessage) {
	_ = json.NewEncoder(w).Encode(map[string]json.RawMessage{
		"jsonrpc": json.RawMessage(`"2.0"`),
		"id":      id,
		"result":  result,
	})
}

// WriteRPCError writes a JSON-RPC error response.
func WriteRPCError(w io.Writer, id json.RawMessage, code int, message string) {
	errJSON, _ := json.Marshal(map[string]any{"code": code, "message": message})
	_ = json.NewEncoder(w).Encode(map[string]json.RawMessage{
		"jsonrpc": json.RawMessage(`"2.0"`),
		"id":      id,
		"error":   json.RawMessage(errJSON),
	})
}
