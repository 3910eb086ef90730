package parameters

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/backend/groth16"
)

// Scheme parameter files start with a four byte tag and a big-endian
// uint32 format version.
var (
	tagNoteEncryption   = [4]byte{'M', 'N', 'E', 'S'}
	tagPoseidon         = [4]byte{'M', 'P', 'O', 'S'}
	tagAccumulatorModel = [4]byte{'M', 'U', 'A', 'M'}
)

const (
	formatVersion uint32 = 1

	maxPoseidonWidth  = 16
	maxPoseidonRounds = 256
	maxTreeDepth      = 64
)

// ErrTrailingData is returned when an artifact has bytes after its payload.
var ErrTrailingData = errors.New("unexpected trailing data")

func writeHeader(w io.Writer, tag [4]byte) error {
	if _, err := w.Write(tag[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, formatVersion)
}

func readHeader(r io.Reader, tag [4]byte) error {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return fmt.Errorf("read tag: %w", err)
	}
	if got != tag {
		return fmt.Errorf("tag %q, expected %q", got[:], tag[:])
	}
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if version != formatVersion {
		return fmt.Errorf("unsupported format version %d", version)
	}
	return nil
}

// decodeExact runs fn over data and fails if anything is left over.
func decodeExact(data []byte, fn func(r *bytes.Reader) error) error {
	r := bytes.NewReader(data)
	if err := fn(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return nil
}

// readVector reads a length-prefixed field vector whose length must be want.
// The prefix is checked before fr.Vector allocates for it.
func readVector(r io.Reader, want int) (fr.Vector, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	if got := binary.BigEndian.Uint32(prefix[:]); int64(got) != int64(want) {
		return nil, fmt.Errorf("vector of %d elements, expected %d", got, want)
	}
	var v fr.Vector
	if _, err := v.ReadFrom(io.MultiReader(bytes.NewReader(prefix[:]), r)); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Poseidon) writeBody(w io.Writer) error {
	hdr := [3]uint64{uint64(p.Width), uint64(p.FullRounds), uint64(p.PartialRounds)}
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return err
	}
	if _, err := p.RoundConstants.WriteTo(w); err != nil {
		return err
	}
	_, err := p.MDS.WriteTo(w)
	return err
}

func (p *Poseidon) readBody(r io.Reader) error {
	var hdr [3]uint64
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return fmt.Errorf("read poseidon header: %w", err)
	}
	width, full, partial := hdr[0], hdr[1], hdr[2]
	if width < 2 || width > maxPoseidonWidth {
		return fmt.Errorf("poseidon width %d out of range", width)
	}
	if full == 0 || full%2 != 0 || full > maxPoseidonRounds || partial > maxPoseidonRounds {
		return fmt.Errorf("invalid poseidon rounds (full %d, partial %d)", full, partial)
	}

	rc, err := readVector(r, int(width*(full+partial)))
	if err != nil {
		return fmt.Errorf("read round constants: %w", err)
	}
	mds, err := readVector(r, int(width*width))
	if err != nil {
		return fmt.Errorf("read mds matrix: %w", err)
	}

	*p = Poseidon{
		Width:          int(width),
		FullRounds:     int(full),
		PartialRounds:  int(partial),
		RoundConstants: rc,
		MDS:            mds,
	}
	return nil
}

// MarshalBinary encodes p as a standalone commitment scheme file.
func (p Poseidon) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, tagPoseidon); err != nil {
		return nil, err
	}
	if err := p.writeBody(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a commitment scheme file.
func (p *Poseidon) UnmarshalBinary(data []byte) error {
	return decodeExact(data, func(r *bytes.Reader) error {
		if err := readHeader(r, tagPoseidon); err != nil {
			return err
		}
		return p.readBody(r)
	})
}

// MarshalBinary encodes the scheme with a compressed generator.
func (s NoteEncryptionScheme) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, tagNoteEncryption); err != nil {
		return nil, err
	}
	if err := bls12381.NewEncoder(&buf).Encode(&s.Generator); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the scheme. The generator must be a non-identity
// point of the prime-order subgroup.
func (s *NoteEncryptionScheme) UnmarshalBinary(data []byte) error {
	return decodeExact(data, func(r *bytes.Reader) error {
		if err := readHeader(r, tagNoteEncryption); err != nil {
			return err
		}
		var g bls12381.G1Affine
		if err := bls12381.NewDecoder(r).Decode(&g); err != nil {
			return fmt.Errorf("read generator: %w", err)
		}
		if g.IsInfinity() {
			return errors.New("generator is the point at infinity")
		}
		s.Generator = g
		return nil
	})
}

// MarshalBinary encodes the model.
func (m AccumulatorModel) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, tagAccumulatorModel); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint64(m.Depth)); err != nil {
		return nil, err
	}
	if err := m.Leaf.writeBody(&buf); err != nil {
		return nil, err
	}
	if err := m.Inner.writeBody(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the model. Leaves hash one input and inner nodes
// hash two, so the permutation widths are fixed at 2 and 3.
func (m *AccumulatorModel) UnmarshalBinary(data []byte) error {
	return decodeExact(data, func(r *bytes.Reader) error {
		if err := readHeader(r, tagAccumulatorModel); err != nil {
			return err
		}
		var depth uint64
		if err := binary.Read(r, binary.BigEndian, &depth); err != nil {
			return fmt.Errorf("read depth: %w", err)
		}
		if depth == 0 || depth > maxTreeDepth {
			return fmt.Errorf("tree depth %d out of range", depth)
		}

		var leaf, inner Poseidon
		if err := leaf.readBody(r); err != nil {
			return fmt.Errorf("leaf hash: %w", err)
		}
		if err := inner.readBody(r); err != nil {
			return fmt.Errorf("inner hash: %w", err)
		}
		if leaf.Width != 2 || inner.Width != 3 {
			return fmt.Errorf("hash widths %d/%d, expected 2/3", leaf.Width, inner.Width)
		}

		*m = AccumulatorModel{Depth: int(depth), Leaf: leaf, Inner: inner}
		return nil
	})
}

// DecodeProvingKey reads a Groth16 BLS12-381 proving key.
func DecodeProvingKey(data []byte) (groth16.ProvingKey, error) {
	pk := groth16.NewProvingKey(ecc.BLS12_381)
	if err := decodeExact(data, func(r *bytes.Reader) error {
		_, err := pk.ReadFrom(r)
		return err
	}); err != nil {
		return nil, err
	}
	return pk, nil
}

// DecodeVerifyingKey reads a Groth16 BLS12-381 verifying key.
func DecodeVerifyingKey(data []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BLS12_381)
	if err := decodeExact(data, func(r *bytes.Reader) error {
		_, err := vk.ReadFrom(r)
		return err
	}); err != nil {
		return nil, err
	}
	return vk, nil
}

// decoders places each artifact into its slot of a Bundle under assembly.
// Every entry writes a distinct field, so they may run concurrently.
var decoders = map[Name]func(data []byte, b *Bundle) error{
	MintProvingContext: func(data []byte, b *Bundle) (err error) {
		b.Proving.Mint, err = DecodeProvingKey(data)
		return err
	},
	PrivateTransferProvingContext: func(data []byte, b *Bundle) (err error) {
		b.Proving.PrivateTransfer, err = DecodeProvingKey(data)
		return err
	},
	ReclaimProvingContext: func(data []byte, b *Bundle) (err error) {
		b.Proving.Reclaim, err = DecodeProvingKey(data)
		return err
	},
	MintVerifyingContext: func(data []byte, b *Bundle) (err error) {
		b.Verifying.Mint, err = DecodeVerifyingKey(data)
		return err
	},
	PrivateTransferVerifyingContext: func(data []byte, b *Bundle) (err error) {
		b.Verifying.PrivateTransfer, err = DecodeVerifyingKey(data)
		return err
	},
	ReclaimVerifyingContext: func(data []byte, b *Bundle) (err error) {
		b.Verifying.Reclaim, err = DecodeVerifyingKey(data)
		return err
	},
	NoteEncryptionSchemeParams: func(data []byte, b *Bundle) error {
		return b.Parameters.NoteEncryption.UnmarshalBinary(data)
	},
	UtxoCommitmentSchemeParams: func(data []byte, b *Bundle) error {
		return b.Parameters.UtxoCommitment.UnmarshalBinary(data)
	},
	VoidNumberCommitmentSchemeParams: func(data []byte, b *Bundle) error {
		return b.Parameters.VoidNumberCommitment.UnmarshalBinary(data)
	},
	UtxoAccumulatorModelParams: func(data []byte, b *Bundle) error {
		return b.AccumulatorModel.UnmarshalBinary(data)
	},
}
