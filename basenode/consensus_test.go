package basenode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockReward(t *testing.T) {
	for _, network := range []Network{NetworkMainnet, NetworkRincewind, NetworkLocalnet} {
		t.Run(string(network), func(t *testing.T) {
			rules, err := NewConsensusRules(network)
			require.NoError(t, err)

			require.Equal(t, max(rules.EmissionInitial, rules.EmissionTail), rules.BlockReward(0))

			previous := rules.BlockReward(0)
			for _, height := range []uint64{1, 2, 10, 100, 1000, 10000} {
				reward := rules.BlockReward(height)
				require.LessOrEqual(t, reward, previous, "height %d", height)
				require.GreaterOrEqual(t, reward, rules.EmissionTail, "height %d", height)
				previous = reward
			}
		})
	}
}

func TestBlockReward_Localnet(t *testing.T) {
	rules, err := NewConsensusRules(NetworkLocalnet)
	require.NoError(t, err)

	require.Equal(t, uint64(10_000_000), rules.BlockReward(0))
	require.Equal(t, uint64(5_000_000), rules.BlockReward(1))
	require.Equal(t, uint64(2_500_000), rules.BlockReward(2))
	require.Equal(t, rules.EmissionTail, rules.BlockReward(64))
}

func TestBlockReward_Mainnet(t *testing.T) {
	rules, err := NewConsensusRules(NetworkMainnet)
	require.NoError(t, err)

	initial := rules.EmissionInitial
	expected := initial - initial>>22 - initial>>23 - initial>>24 - initial>>26 - initial>>27
	require.Equal(t, expected, rules.BlockReward(1))
}

func TestBlockReward_Cursor(t *testing.T) {
	rules, err := NewConsensusRules(NetworkMainnet)
	require.NoError(t, err)
	fresh := func(height uint64) uint64 {
		r, err := NewConsensusRules(NetworkMainnet)
		require.NoError(t, err)
		return r.BlockReward(height)
	}

	const matureHeight = 3_000_000

	mature := rules.BlockReward(matureHeight)
	require.Equal(t, fresh(matureHeight), mature)
	require.Equal(t, mature, rules.BlockReward(matureHeight))
	require.GreaterOrEqual(t, mature, rules.BlockReward(matureHeight+1))

	// going back walks from genesis again
	require.Equal(t, fresh(1000), rules.BlockReward(1000))
	require.Equal(t, fresh(1001), rules.BlockReward(1001))
}

func TestNewConsensusRules_Unknown(t *testing.T) {
	_, err := NewConsensusRules(Network("stibbons"))
	require.Error(t, err)

	_, err = ParseNetwork("stibbons")
	require.Error(t, err)

	network, err := ParseNetwork("rincewind")
	require.NoError(t, err)
	require.Equal(t, NetworkRincewind, network)
}

func TestAddCoinbase(t *testing.T) {
	rules, err := NewConsensusRules(NetworkLocalnet)
	require.NoError(t, err)

	template := &NewBlockTemplate{
		Header:    &BlockHeader{Height: 2},
		MinerData: &MinerData{TotalFees: 7},
	}
	require.NoError(t, rules.AddCoinbase(template))
	require.Equal(t, &Coinbase{Value: 2_500_007, LockHeight: 3}, template.Coinbase)

	require.ErrorIs(t, rules.AddCoinbase(&NewBlockTemplate{}), ErrMalformedResponse)
}
