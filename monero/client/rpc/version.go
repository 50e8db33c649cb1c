package rpc

import (
	"context"
	"fmt"
)

type GetVersionResult struct {
	Release   bool   `json:"release"`
	Status    string `json:"status"`
	Untrusted bool   `json:"untrusted"`
	Version   uint64 `json:"version"`
}

// Major monerod packs the RPC version as major << 16 | minor
func (r *GetVersionResult) Major() uint64 {
	return r.Version >> 16
}

func (r *GetVersionResult) Minor() uint64 {
	return r.Version & 0xffff
}

func (r *GetVersionResult) String() string {
	return fmt.Sprintf("%d.%d", r.Major(), r.Minor())
}

// GetVersion retrieves the version of monerod's RPC interface
func (c *Client) GetVersion(ctx context.Context) (result *GetVersionResult, err error) {
	result = &GetVersionResult{}
	if err = c.JSONRPC(ctx, "get_version", nil, result); err != nil {
		return nil, fmt.Errorf("get_version: %w", err)
	}
	return result, nil
}
