package proxy

import (
	"context"
	"fmt"

	"github.com/sturdilythatch87/tari/basenode"
	"github.com/sturdilythatch87/tari/merge_mining"
	"github.com/sturdilythatch87/tari/monero/block"
	"github.com/sturdilythatch87/tari/monero/client/rpc"
	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
	fasthex "github.com/tmthrgd/go-hex"
)

// handleSubmitBlock submits the pending auxiliary block with the proof of work of the block
// monerod just accepted. Pending work is single use, it is dropped whatever the outcome
func (s *Server) handleSubmitBlock(ctx context.Context, req *request, resp *rpc.Response) (*rpc.Response, error) {
	s.state.lock.Lock()
	defer s.state.lock.Unlock()

	pending := s.state.pending
	s.state.pending = nil

	doc, err := upstreamJSON(resp)
	if err != nil {
		return nil, err
	}
	// an error envelope has no result, it is a rejection like any status other than OK
	result, _ := doc["result"].(map[string]any)
	if status, _ := result["status"].(string); status != "OK" {
		s.metrics.Submissions.WithLabelValues(SubmissionRejected).Inc()
		if rpcErr, ok := doc["error"]; ok {
			return nil, fmt.Errorf("%w: error %v", ErrUpstreamRejected, rpcErr)
		}
		return nil, fmt.Errorf("%w: status %v", ErrUpstreamRejected, result["status"])
	}

	// the first entry is taken to be the mined block, as sent by common miners
	minedBlob, ok := submittedBlob(req.body)
	if !ok {
		s.metrics.Submissions.WithLabelValues(SubmissionInvalidParams).Inc()
		return invalidParamsResponse(invalidSubmitParams), nil
	}

	if pending == nil {
		s.metrics.Submissions.WithLabelValues(SubmissionNoWork).Inc()
		return nil, ErrTransientState
	}

	auxBlock, err := s.proofOfWorkBlock(pending, minedBlob)
	if err != nil {
		s.metrics.Submissions.WithLabelValues(SubmissionFailed).Inc()
		return nil, err
	}

	err = s.baseNode.SubmitBlock(ctx, auxBlock)
	s.state.lastSubmittedHeight = s.state.lastKnownHeight
	if err != nil {
		s.metrics.Submissions.WithLabelValues(SubmissionFailed).Inc()
		return nil, err
	}

	s.metrics.Submissions.WithLabelValues(SubmissionAccepted).Inc()
	utils.Logf("MergeMining", "submitted aux block at height %d, aux hash %s", pending.Job.Height, pending.Job.Hash)

	return resp, nil
}

// proofOfWorkBlock copy of the pending block carrying the mined upstream block as proof of work
func (s *Server) proofOfWorkBlock(pending *PendingWork, minedBlob string) (*basenode.Block, error) {
	seed, err := types.HashFromString(pending.SeedHash)
	if err != nil {
		return nil, fmt.Errorf("%w: seed_hash: %w", ErrDecode, err)
	}

	blob, err := fasthex.DecodeString(minedBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: mined block: %w", ErrDecode, err)
	}
	var b block.Block
	if err = b.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("%w: mined block: %w", ErrDecode, err)
	}

	powData, err := merge_mining.NewPowData(&b, seed)
	if err != nil {
		return nil, fmt.Errorf("%w: pow data: %w", ErrEncode, err)
	}
	if err = powData.Verify(pending.Job.Hash); err != nil {
		utils.Noticef("MergeMining", "mined block does not commit pending work: %s", err)
	}
	buf, err := powData.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: pow data: %w", ErrEncode, err)
	}

	header := *pending.Block.Header
	header.Pow = &basenode.ProofOfWork{
		PowAlgo: basenode.PowAlgoMonero,
		PowData: buf,
	}
	return &basenode.Block{
		Header: &header,
		Body:   pending.Block.Body,
	}, nil
}
