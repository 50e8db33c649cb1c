package merge_mining

import "github.com/sturdilythatch87/tari/types"

// AuxiliaryJob Work offered by the auxiliary chain for one upstream template
type AuxiliaryJob struct {
	Hash       types.Hash `json:"aux_hash"`
	Height     uint64     `json:"aux_height"`
	Difficulty uint64     `json:"aux_diff"`
}
