package merge_mining

import (
	"github.com/sturdilythatch87/tari/monero/block"
	"github.com/sturdilythatch87/tari/monero/transaction"
	"github.com/sturdilythatch87/tari/types"
)

// Depth of the auxiliary chain merkle tree committed in the tag. A single chain is merge mined
const Depth = 0

// AppendTag Commits hash in the coinbase extra of b, replacing an existing merge mining tag
func AppendTag(b *block.Block, hash types.Hash) {
	b.Coinbase.Extra.SetTag(transaction.NewMergeMiningTag(Depth, hash))
}

// TemplateResult augmented template data returned to the miner
type TemplateResult struct {
	// Blob Tagged block template
	Blob []byte
	// HashingBlob Proof of work input of the untagged template
	HashingBlob []byte
}

// AugmentTemplate Decodes a block template blob, computes its hashing blob, then commits hash in it
func AugmentTemplate(blob []byte, hash types.Hash) (TemplateResult, error) {
	var b block.Block
	if err := b.UnmarshalBinary(blob); err != nil {
		return TemplateResult{}, err
	}

	hashingBlob := b.HashingBlob(make([]byte, 0, b.HashingBlobBufferLength()))

	AppendTag(&b, hash)

	tagged, err := b.MarshalBinary()
	if err != nil {
		return TemplateResult{}, err
	}

	return TemplateResult{
		Blob:        tagged,
		HashingBlob: hashingBlob,
	}, nil
}
