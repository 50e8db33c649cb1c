package basenode

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sturdilythatch87/tari/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "tari.rpc.BaseNode"

var (
	// ErrRemoteCall the base node could not be reached or answered with an error status
	ErrRemoteCall = errors.New("base node call failed")
	// ErrMalformedResponse a required field was missing from a base node response
	ErrMalformedResponse = errors.New("malformed base node response")
)

// Client talks to a Tari base node over gRPC
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// Connect creates a client for the base node at address. The connection is established lazily,
// so a node that is down at startup only fails the calls made while it is unreachable
func Connect(ctx context.Context, address string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.DialContext(ctx, address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to %s", address)
	}
	return NewClient(conn, timeout), nil
}

// NewClient wraps an existing connection. Calls are bounded by timeout when it is non-zero
func NewClient(conn *grpc.ClientConn, timeout time.Duration) *Client {
	return &Client{
		conn:    conn,
		timeout: timeout,
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, request, response any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/"+method, request, response, grpc.CallContentSubtype(codecName)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRemoteCall, method, err)
	}
	return nil
}

func missingField(method, field string) error {
	return fmt.Errorf("%w: %s: missing field %s", ErrMalformedResponse, method, field)
}

// GetTipInfo returns the height of the longest chain known to the node
func (c *Client) GetTipInfo(ctx context.Context) (uint64, error) {
	var response tipInfoResponse
	if err := c.invoke(ctx, "GetTipInfo", &emptyRequest{}, &response); err != nil {
		return 0, err
	}
	if response.Metadata == nil {
		return 0, missingField("GetTipInfo", "metadata")
	}
	return response.Metadata.HeightOfLongestChain, nil
}

// GetNewBlockTemplate requests a template to be mined with algo
func (c *Client) GetNewBlockTemplate(ctx context.Context, algo PowAlgo) (*NewBlockTemplate, error) {
	var response newBlockTemplateResponse
	if err := c.invoke(ctx, "GetNewBlockTemplate", &PowAlgoRequest{PowAlgo: algo}, &response); err != nil {
		return nil, err
	}
	if response.NewBlockTemplate == nil {
		return nil, missingField("GetNewBlockTemplate", "new_block_template")
	}
	if response.NewBlockTemplate.Header == nil {
		return nil, missingField("GetNewBlockTemplate", "new_block_template.header")
	}
	response.NewBlockTemplate.MinerData = response.MinerData
	return response.NewBlockTemplate, nil
}

// GetNewBlock builds a block from template. The mining data carries the hash to commit in the upstream coinbase
func (c *Client) GetNewBlock(ctx context.Context, template *NewBlockTemplate) (*Block, *MiningData, error) {
	var response getNewBlockResponse
	if err := c.invoke(ctx, "GetNewBlock", template, &response); err != nil {
		return nil, nil, err
	}
	if response.Block == nil {
		return nil, nil, missingField("GetNewBlock", "block")
	}
	if response.Block.Header == nil {
		return nil, nil, missingField("GetNewBlock", "block.header")
	}
	if response.MiningData == nil {
		return nil, nil, missingField("GetNewBlock", "mining_data")
	}
	if len(response.MiningData.MergeMiningHash) != types.HashSize {
		return nil, nil, fmt.Errorf("%w: GetNewBlock: mergemining_hash has %d bytes", ErrMalformedResponse, len(response.MiningData.MergeMiningHash))
	}
	return response.Block, response.MiningData, nil
}

// SubmitBlock submits a block carrying its proof of work
func (c *Client) SubmitBlock(ctx context.Context, block *Block) error {
	var response submitBlockResponse
	return c.invoke(ctx, "SubmitBlock", block, &response)
}
