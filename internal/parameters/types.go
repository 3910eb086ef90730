// Package parameters loads the proving and verifying contexts, scheme
// parameters and accumulator model a private-payment simulation needs.
//
// Every artifact is listed in a catalog with a pinned BLAKE2b-256 checksum.
// The loader fetches all of them concurrently, refuses any whose checksum
// does not match, decodes the rest and only then hands out a Bundle. A
// single failure means no Bundle at all.
package parameters

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/backend/groth16"
)

// Name identifies one artifact of the bundle.
type Name string

const (
	MintProvingContext               Name = "mint-proving-context"
	PrivateTransferProvingContext    Name = "private-transfer-proving-context"
	ReclaimProvingContext            Name = "reclaim-proving-context"
	MintVerifyingContext             Name = "mint-verifying-context"
	PrivateTransferVerifyingContext  Name = "private-transfer-verifying-context"
	ReclaimVerifyingContext          Name = "reclaim-verifying-context"
	NoteEncryptionSchemeParams       Name = "note-encryption-scheme"
	UtxoCommitmentSchemeParams       Name = "utxo-commitment-scheme"
	VoidNumberCommitmentSchemeParams Name = "void-number-commitment-scheme"
	UtxoAccumulatorModelParams       Name = "utxo-accumulator-model"
)

// Names lists every artifact a complete bundle is built from.
var Names = []Name{
	MintProvingContext,
	PrivateTransferProvingContext,
	ReclaimProvingContext,
	MintVerifyingContext,
	PrivateTransferVerifyingContext,
	ReclaimVerifyingContext,
	NoteEncryptionSchemeParams,
	UtxoCommitmentSchemeParams,
	VoidNumberCommitmentSchemeParams,
	UtxoAccumulatorModelParams,
}

// Known reports whether n is one of Names.
func (n Name) Known() bool {
	for _, k := range Names {
		if k == n {
			return true
		}
	}
	return false
}

// IsContext reports whether n is a proving or verifying context.
func (n Name) IsContext() bool {
	switch n {
	case MintProvingContext, PrivateTransferProvingContext, ReclaimProvingContext,
		MintVerifyingContext, PrivateTransferVerifyingContext, ReclaimVerifyingContext:
		return true
	}
	return false
}

// Poseidon holds the constants of a Poseidon permutation over the BLS12-381
// scalar field.
type Poseidon struct {
	Width          int
	FullRounds     int
	PartialRounds  int
	RoundConstants fr.Vector // Width * (FullRounds + PartialRounds) entries
	MDS            fr.Vector // Width * Width entries, row-major
}

// NoteEncryptionScheme holds the group generator used for note key
// agreement.
type NoteEncryptionScheme struct {
	Generator bls12381.G1Affine
}

// AccumulatorModel describes the Merkle tree that accumulates UTXOs.
type AccumulatorModel struct {
	Depth int
	Leaf  Poseidon
	Inner Poseidon
}

// SchemeParameters groups the scheme constants of the payment protocol.
type SchemeParameters struct {
	NoteEncryption       NoteEncryptionScheme
	UtxoCommitment       Poseidon
	VoidNumberCommitment Poseidon
}

// MultiProvingContext holds one Groth16 proving key per transfer shape.
type MultiProvingContext struct {
	Mint            groth16.ProvingKey
	PrivateTransfer groth16.ProvingKey
	Reclaim         groth16.ProvingKey
}

// MultiVerifyingContext holds one Groth16 verifying key per transfer shape.
type MultiVerifyingContext struct {
	Mint            groth16.VerifyingKey
	PrivateTransfer groth16.VerifyingKey
	Reclaim         groth16.VerifyingKey
}

// Bundle is everything a simulation needs. A Bundle returned by the loader
// is always complete.
type Bundle struct {
	Proving          MultiProvingContext
	Verifying        MultiVerifyingContext
	Parameters       SchemeParameters
	AccumulatorModel AccumulatorModel
}
