package proxy

import (
	"fmt"
	"net/http"

	"github.com/sturdilythatch87/tari/monero/client/rpc"
	"github.com/sturdilythatch87/tari/utils"
)

const (
	codeInvalidParams = -32602
	codeInternalError = -32603
)

const invalidSubmitParams = "`params` field is empty or an invalid type for submit block request. Expected an array."

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcErrorResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      int      `json:"id"`
	Error   rpcError `json:"error"`
}

func errorBody(code int, message string, data any) []byte {
	buf, err := utils.MarshalJSON(&rpcErrorResponse{
		JSONRPC: "2.0",
		ID:      -1,
		Error: rpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
	if err != nil {
		utils.Panic(err)
	}
	return buf
}

var internalErrorBody = errorBody(codeInternalError, "Internal error", nil)

func jsonResponse(statusCode int, body []byte) *rpc.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &rpc.Response{
		StatusCode: statusCode,
		Header:     header,
		Body:       body,
	}
}

func invalidParamsResponse(data string) *rpc.Response {
	return jsonResponse(http.StatusOK, errorBody(codeInvalidParams, "Invalid params", data))
}

// withJSONBody replaces the body of resp keeping its status and headers
func withJSONBody(resp *rpc.Response, doc map[string]any) (*rpc.Response, error) {
	buf, err := utils.MarshalJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return &rpc.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       buf,
	}, nil
}

func upstreamJSON(resp *rpc.Response) (map[string]any, error) {
	doc, err := resp.JSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedUpstreamResponse, err)
	}
	return doc, nil
}

func objectField(obj map[string]any, name string) (map[string]any, error) {
	v, ok := obj[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: `%s` is missing or not an object", ErrMalformedUpstreamResponse, name)
	}
	return v, nil
}

func stringField(obj map[string]any, path, name string) (string, error) {
	v, ok := obj[name].(string)
	if !ok {
		return "", fmt.Errorf("%w: `%s.%s` is missing or not a string", ErrMalformedUpstreamResponse, path, name)
	}
	return v, nil
}

// submittedBlob first entry of the params array of a submit_block request
func submittedBlob(body []byte) (string, bool) {
	var doc map[string]any
	if err := utils.UnmarshalJSONNumber(body, &doc); err != nil {
		return "", false
	}
	params, ok := doc["params"].([]any)
	if !ok || len(params) == 0 {
		return "", false
	}
	blob, ok := params[0].(string)
	return blob, ok
}
