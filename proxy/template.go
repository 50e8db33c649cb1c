package proxy

import (
	"context"
	"fmt"

	"github.com/sturdilythatch87/tari/basenode"
	"github.com/sturdilythatch87/tari/merge_mining"
	"github.com/sturdilythatch87/tari/monero/client/rpc"
	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
	fasthex "github.com/tmthrgd/go-hex"
)

// handleGetBlockTemplate commits a fresh auxiliary block in the coinbase of the monerod template
// and keeps that block as the pending work
func (s *Server) handleGetBlockTemplate(ctx context.Context, _ *request, resp *rpc.Response) (*rpc.Response, error) {
	doc, err := upstreamJSON(resp)
	if err != nil {
		return nil, err
	}
	result, err := objectField(doc, "result")
	if err != nil {
		return nil, err
	}
	templateBlob, err := stringField(result, "result", "blocktemplate_blob")
	if err != nil {
		return nil, err
	}
	seedHash, err := stringField(result, "result", "seed_hash")
	if err != nil {
		return nil, err
	}

	height, err := s.baseNode.GetTipInfo(ctx)
	if err != nil {
		return nil, err
	}

	template, err := s.baseNode.GetNewBlockTemplate(ctx, basenode.PowAlgoMonero)
	if err != nil {
		return nil, err
	}
	if err = s.config.Rules.AddCoinbase(template); err != nil {
		return nil, err
	}

	auxBlock, miningData, err := s.baseNode.GetNewBlock(ctx, template)
	if err != nil {
		return nil, err
	}

	job := merge_mining.AuxiliaryJob{
		Hash:       types.HashFromBytes(miningData.MergeMiningHash),
		Height:     auxBlock.Header.Height,
		Difficulty: miningData.TargetDifficulty,
	}

	blob, err := fasthex.DecodeString(templateBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: blocktemplate_blob: %w", ErrDecode, err)
	}
	augmented, err := merge_mining.AugmentTemplate(blob, job.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: blocktemplate_blob: %w", ErrDecode, err)
	}

	result["blocktemplate_blob"] = fasthex.EncodeToString(augmented.Blob)
	result["blockhashing_blob"] = fasthex.EncodeToString(augmented.HashingBlob)

	response, err := withJSONBody(resp, doc)
	if err != nil {
		return nil, err
	}

	s.state.lock.Lock()
	s.state.pending = &PendingWork{
		Block:    auxBlock,
		SeedHash: seedHash,
		Job:      job,
	}
	s.state.lastKnownHeight.set(height)
	s.state.lock.Unlock()

	s.metrics.Templates.Inc()
	s.metrics.AuxiliaryHeight.Set(float64(job.Height))
	s.metrics.AuxiliaryTarget.Set(float64(job.Difficulty))

	utils.Logf("MergeMining", "new template: monero height %v, aux height %d, aux difficulty %d, aux hash %s", result["height"], job.Height, job.Difficulty, job.Hash)

	return response, nil
}
