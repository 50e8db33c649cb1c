package crypto

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/sturdilythatch87/tari/types"
)

func makeTree(n int) MerkleTree {
	tree := make(MerkleTree, n)
	for i := range tree {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		tree[i] = Keccak256(buf[:])
	}
	return tree
}

func TestMerkleTree_RootHash(t *testing.T) {
	tree := makeTree(3)

	right := Keccak256Var(tree[1][:], tree[2][:])
	expected := Keccak256Var(tree[0][:], right[:])
	if root := tree.RootHash(); root != expected {
		t.Fatalf("expected %s, got %s", expected, root)
	}

	single := makeTree(1)
	if single.RootHash() != single[0] {
		t.Fatal("single leaf root must be the leaf itself")
	}

	pair := makeTree(2)
	if pair.RootHash() != Keccak256Var(pair[0][:], pair[1][:]) {
		t.Fatal("pair root mismatch")
	}
}

func TestMerkleTree_MainBranch(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 9, 16, 33, 100} {
		t.Run(fmt.Sprintf("Leaves%d", n), func(t *testing.T) {
			tree := makeTree(n)
			root := tree.RootHash()
			proof := MerkleProof(tree.MainBranch())
			if !proof.Verify(tree[0], 0, n, root) {
				t.Fatalf("proof of length %d does not verify against root %s", len(proof), root)
			}
			if n > 1 && proof.Verify(Keccak256([]byte("other")), 0, n, root) {
				t.Fatal("proof verified with a different leaf")
			}
		})
	}
}

func TestKeccak256(t *testing.T) {
	// keccak256 of the empty string
	expected := types.MustHashFromString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if h := Keccak256([]byte{}); h != expected {
		t.Fatalf("expected %s, got %s", expected, h)
	}
	if Keccak256Var([]byte("ab"), []byte("c")) != Keccak256([]byte("abc")) {
		t.Fatal("variadic hash differs")
	}
}
