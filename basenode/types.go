package basenode

import (
	"github.com/sturdilythatch87/tari/types"
	"github.com/sturdilythatch87/tari/utils"
)

type PowAlgo uint64

const (
	PowAlgoMonero PowAlgo = 0
	PowAlgoSha3   PowAlgo = 1
)

func (a PowAlgo) String() string {
	switch a {
	case PowAlgoMonero:
		return "Monero"
	case PowAlgoSha3:
		return "Sha3"
	default:
		return "Unknown"
	}
}

type ProofOfWork struct {
	PowAlgo PowAlgo     `json:"pow_algo"`
	PowData types.Bytes `json:"pow_data"`
}

// BlockHeader Only height and proof of work are interpreted, everything else is carried as received
type BlockHeader struct {
	Height uint64
	Pow    *ProofOfWork

	fields map[string]utils.RawJSON
}

func (h BlockHeader) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(h.fields)+2)
	for k, v := range h.fields {
		m[k] = v
	}
	m["height"] = h.Height
	if h.Pow != nil {
		m["pow"] = h.Pow
	}
	return utils.MarshalJSON(m)
}

func (h *BlockHeader) UnmarshalJSON(buf []byte) error {
	var fields map[string]utils.RawJSON
	if err := utils.UnmarshalJSON(buf, &fields); err != nil {
		return err
	}

	h.Height = 0
	h.Pow = nil

	if v, ok := fields["height"]; ok {
		if err := utils.UnmarshalJSON(v, &h.Height); err != nil {
			return err
		}
		delete(fields, "height")
	}
	if v, ok := fields["pow"]; ok {
		if string(v) != "null" {
			h.Pow = &ProofOfWork{}
			if err := utils.UnmarshalJSON(v, h.Pow); err != nil {
				return err
			}
		}
		delete(fields, "pow")
	}
	h.fields = fields
	return nil
}

// Field raw value of a field not interpreted here
func (h *BlockHeader) Field(name string) (utils.RawJSON, bool) {
	v, ok := h.fields[name]
	return v, ok
}

type Block struct {
	Header *BlockHeader  `json:"header"`
	Body   utils.RawJSON `json:"body,omitempty"`
}

// Coinbase Reward output parameters added to a template before the block is built
type Coinbase struct {
	Value      uint64 `json:"value"`
	LockHeight uint64 `json:"lock_height"`
}

type NewBlockTemplate struct {
	Header   *BlockHeader  `json:"header"`
	Body     utils.RawJSON `json:"body,omitempty"`
	Coinbase *Coinbase     `json:"coinbase,omitempty"`

	// MinerData returned alongside the template, not sent back
	MinerData *MinerData `json:"-"`
}

type MinerData struct {
	Algo             *PowAlgoRequest `json:"algo,omitempty"`
	TargetDifficulty uint64          `json:"target_difficulty"`
	Reward           uint64          `json:"reward"`
	TotalFees        uint64          `json:"total_fees"`
}

type MiningData struct {
	MergeMiningHash  types.Bytes `json:"mergemining_hash"`
	TargetDifficulty uint64      `json:"target_difficulty"`
}

type ChainMetadata struct {
	HeightOfLongestChain  uint64      `json:"height_of_longest_chain"`
	BestBlock             types.Bytes `json:"best_block,omitempty"`
	PruningHorizon        uint64      `json:"pruning_horizon,omitempty"`
	AccumulatedDifficulty types.Bytes `json:"accumulated_difficulty,omitempty"`
}

type emptyRequest struct{}

type PowAlgoRequest struct {
	PowAlgo PowAlgo `json:"pow_algo"`
}

type tipInfoResponse struct {
	Metadata *ChainMetadata `json:"metadata"`
}

type newBlockTemplateResponse struct {
	NewBlockTemplate    *NewBlockTemplate `json:"new_block_template"`
	InitialSyncAchieved bool              `json:"initial_sync_achieved"`
	MinerData           *MinerData        `json:"miner_data"`
}

type getNewBlockResponse struct {
	Block      *Block      `json:"block"`
	MiningData *MiningData `json:"mining_data"`
}

type submitBlockResponse struct {
	BlockHash types.Bytes `json:"block_hash"`
}
