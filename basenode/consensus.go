package basenode

import (
	"fmt"
	"sync"

	"github.com/sturdilythatch87/tari/utils"
)

// MicroTari smallest Tari unit
const MicroTari = 1

const Tari = 1_000_000 * MicroTari

// ConsensusRules subset of the network consensus constants needed to build a coinbase
type ConsensusRules struct {
	Network Network

	// EmissionInitial reward of the first block
	EmissionInitial uint64
	// EmissionDecay each block the reward is reduced by reward >> d for every d
	EmissionDecay []uint
	// EmissionTail reward never goes below this
	EmissionTail uint64

	// CoinbaseLockHeight blocks before a coinbase output can be spent
	CoinbaseLockHeight uint64

	emissionLock sync.Mutex
	emission     emissionCursor
}

var emissionDecay = []uint{22, 23, 24, 26, 27}

// NewConsensusRules returns the rules of the given network
func NewConsensusRules(network Network) (*ConsensusRules, error) {
	switch network {
	case NetworkMainnet:
		return &ConsensusRules{
			Network:            network,
			EmissionInitial:    13_952_877_857 * MicroTari,
			EmissionDecay:      emissionDecay,
			EmissionTail:       800 * Tari,
			CoinbaseLockHeight: 720,
		}, nil
	case NetworkRincewind:
		return &ConsensusRules{
			Network:            network,
			EmissionInitial:    5_538_846_115 * MicroTari,
			EmissionDecay:      emissionDecay,
			EmissionTail:       100 * MicroTari,
			CoinbaseLockHeight: 60,
		}, nil
	case NetworkLocalnet:
		return &ConsensusRules{
			Network:            network,
			EmissionInitial:    10_000_000 * MicroTari,
			EmissionDecay:      []uint{1},
			EmissionTail:       100 * MicroTari,
			CoinbaseLockHeight: 1,
		}, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}

type emissionCursor struct {
	started bool
	height  uint64
	reward  uint64
}

// BlockReward emission at height, the genesis block being height 0.
// The decay has no closed form, so the last computed height is kept and later heights continue from it.
// Asking for a lower height than the previous call walks from genesis again
func (r *ConsensusRules) BlockReward(height uint64) uint64 {
	r.emissionLock.Lock()
	defer r.emissionLock.Unlock()

	if !r.emission.started || r.emission.height > height {
		r.emission = emissionCursor{started: true, reward: r.EmissionInitial}
	}

	for r.emission.height < height {
		reward := r.emission.reward
		if reward <= r.EmissionTail {
			return r.EmissionTail
		}
		next := reward
		for _, d := range r.EmissionDecay {
			next -= reward >> d
		}
		if next == reward {
			// decay no longer changes the reward, it can only be the tail from now on
			break
		}
		r.emission.height++
		r.emission.reward = next
	}
	return max(r.emission.reward, r.EmissionTail)
}

// AddCoinbase sets the coinbase of template to the block reward plus fees, locked per the network rules
func (r *ConsensusRules) AddCoinbase(template *NewBlockTemplate) error {
	if template == nil || template.Header == nil {
		return missingField("AddCoinbase", "header")
	}

	height := template.Header.Height
	reward := r.BlockReward(height)

	var fees uint64
	if template.MinerData != nil {
		fees = template.MinerData.TotalFees
		if template.MinerData.Reward != 0 && template.MinerData.Reward != reward {
			utils.Noticef("BaseNode", "block reward at height %d differs from node: %d != %d", height, reward, template.MinerData.Reward)
		}
	}

	template.Coinbase = &Coinbase{
		Value:      reward + fees,
		LockHeight: height + r.CoinbaseLockHeight,
	}
	return nil
}
