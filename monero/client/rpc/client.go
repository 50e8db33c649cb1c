package rpc

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sturdilythatch87/tari/utils"
	fasthex "github.com/tmthrgd/go-hex"
)

const (
	// EndpointJSONRPC is the common endpoint used for all the RPC calls
	// that make use of epee's JSONRPC invocation format for requests and
	// responses.
	EndpointJSONRPC = "/json_rpc"

	// versionRPC is the version of the JsonRPC format.
	versionRPC = "2.0"
)

// ErrUpstreamUnreachable the request could not be delivered or no response was received
var ErrUpstreamUnreachable = errors.New("upstream unreachable")

// hopHeaders apply to a single connection and are not forwarded
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	// let the transport negotiate compression so bodies can be parsed
	"Accept-Encoding",
}

type authScheme int

const (
	authNone authScheme = iota
	authBasic
	authDigest
)

// Client is a client for monerod's HTTP interface
type Client struct {
	http    *http.Client
	address *url.URL

	auth     authScheme
	username string
	password string

	digestLock     sync.Mutex
	digest         *digest
	requestCounter uint32
}

// ClientOption is a functional option for the Client
type ClientOption func(o *Client)

// WithHTTPClient allows overriding the http client used for requests
func WithHTTPClient(v *http.Client) ClientOption {
	return func(o *Client) {
		o.http = v
	}
}

// WithBasicAuth attaches basic authentication credentials to every request
func WithBasicAuth(username, password string) ClientOption {
	return func(o *Client) {
		o.auth = authBasic
		o.username = username
		o.password = password
	}
}

// WithDigestAuth answers monerod's --rpc-login digest challenges
func WithDigestAuth(username, password string) ClientOption {
	return func(o *Client) {
		o.auth = authDigest
		o.username = username
		o.password = password
	}
}

// NewClient instantiates a new client for interacting with monerod at address
func NewClient(address string, opts ...ClientOption) (*Client, error) {
	parsedAddress, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("url parse: %w", err)
	}
	if parsedAddress.Scheme == "" || parsedAddress.Host == "" {
		return nil, fmt.Errorf("url parse: invalid address %q", address)
	}
	parsedAddress.Path = strings.TrimSuffix(parsedAddress.Path, "/")

	c := &Client{
		address: parsedAddress,
		http:    http.DefaultClient,
	}

	for _, option := range opts {
		option(c)
	}

	return c, nil
}

// Address base address of monerod
func (c *Client) Address() string {
	return c.address.String()
}

// Response a complete upstream response, body fully read
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess 2xx status code
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into a generic object, keeping numbers in their textual form
func (r *Response) JSON() (map[string]any, error) {
	var v map[string]any
	if err := utils.UnmarshalJSONNumber(r.Body, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("response body is not a JSON object")
	}
	return v, nil
}

// Forward sends a request to monerod at the same path and query as requestURI, with the given body.
// Any status code is a valid response, transport failures are ErrUpstreamUnreachable
func (c *Client) Forward(ctx context.Context, method, requestURI string, header http.Header, body []byte) (*Response, error) {
	target := *c.address
	requestURL, err := url.Parse(requestURI)
	if err != nil {
		return nil, fmt.Errorf("url parse: %w", err)
	}
	target.Path = c.address.Path + requestURL.Path
	target.RawPath = ""
	target.RawQuery = requestURL.RawQuery

	resp, err := c.do(ctx, method, &target, header, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", errors.Join(ErrUpstreamUnreachable, err))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       buf,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method string, target *url.URL, header http.Header, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new req: %w", err)
	}

	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		req.Header.Del(k)
	}
	switch c.auth {
	case authBasic:
		req.SetBasicAuth(c.username, c.password)
	case authDigest:
		if err = c.authorizeDigest(req); err != nil {
			return nil, err
		}
	}

	return req, nil
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, header http.Header, body []byte) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, target, header, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: %w", errors.Join(ErrUpstreamUnreachable, err))
	}

	if c.auth != authDigest || resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// answer the challenge once, then retry with the new nonce
	d := newDigest(resp.Header.Get("WWW-Authenticate"))
	if d == nil {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	c.digestLock.Lock()
	c.digest = d
	c.requestCounter = 0
	c.digestLock.Unlock()

	if req, err = c.newRequest(ctx, method, target, header, body); err != nil {
		return nil, err
	}
	if resp, err = c.http.Do(req); err != nil {
		return nil, fmt.Errorf("do: %w", errors.Join(ErrUpstreamUnreachable, err))
	}
	return resp, nil
}

func (c *Client) authorizeDigest(req *http.Request) error {
	c.digestLock.Lock()
	defer c.digestLock.Unlock()

	if c.digest == nil {
		return nil
	}

	var clientNonce [8]byte
	if _, err := rand.Read(clientNonce[:]); err != nil {
		return err
	}
	c.requestCounter++

	hdr, err := c.digest.Auth(req.Method, req.URL.RequestURI(), c.username, c.password, c.requestCounter, fasthex.EncodeToString(clientNonce[:]))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", hdr)
	return nil
}

// RequestEnvelope wraps all requests made via JSONRPC.
type RequestEnvelope struct {
	ID      string `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// ResponseEnvelope wraps all responses from a call to `/json_rpc`.
type ResponseEnvelope struct {
	ID      string         `json:"id"`
	JSONRPC string         `json:"jsonrpc"`
	Result  any            `json:"result"`
	Error   *ResponseError `json:"error"`
}

// ResponseError error field of a JSONRPC response
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rpc error code=%d message=%s", e.Code, e.Message)
}

// JSONRPC issues a request for a particular method under the JSONRPC endpoint, decoding the result into result
func (c *Client) JSONRPC(ctx context.Context, method string, params, result any) error {
	payload, err := utils.MarshalJSON(&RequestEnvelope{
		ID:      "0",
		JSONRPC: versionRPC,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	target := *c.address
	target.Path = c.address.Path + EndpointJSONRPC

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, http.MethodPost, &target, header, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("non-2xx status code: %d", resp.StatusCode)
	}

	rpcResponseBody := &ResponseEnvelope{
		Result: result,
	}

	if err = utils.NewJSONDecoder(resp.Body).Decode(rpcResponseBody); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if rpcResponseBody.Error != nil {
		return rpcResponseBody.Error
	}

	return nil
}
