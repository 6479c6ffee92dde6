// Package signature provides the compact content-addressed file signature
// used by every registry record: a fixed-size digest plus a self-describing
// algorithm code and length class, in the multihash tradition.
package signature

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// DigestSize is the number of digest bytes carried by a signature.
const DigestSize = 32

// EncodedSize is the wire size of a signature: digest, algorithm, size.
const EncodedSize = DigestSize + 2

// Signature errors
var (
	ErrShortBuffer = errors.New("signature buffer too short")
	ErrZeroField   = errors.New("signature has a zero field")
)

// Signature references externally stored content by digest.
// A signature is valid iff the digest, algorithm code, and size class
// are all non-zero.
type Signature struct {
	Digest    [DigestSize]byte
	Algorithm uint8 // multihash algorithm code (e.g. 0x12 for sha2-256)
	Size      uint8 // digest length class in bytes
}

// Sum computes the sha2-256 signature of data.
func Sum(data []byte) Signature {
	var s Signature
	s.Digest = sha256.Sum256(data)
	s.Algorithm = uint8(multihash.SHA2_256)
	s.Size = DigestSize
	return s
}

// Valid reports whether all three fields are non-zero.
func (s Signature) Valid() bool {
	if s.Algorithm == 0 || s.Size == 0 {
		return false
	}
	var zero [DigestSize]byte
	return !bytes.Equal(s.Digest[:], zero[:])
}

// IsZero reports whether the signature is the zero value.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Encode returns the 34-byte wire form: digest, then algorithm, then size.
func (s Signature) Encode() [EncodedSize]byte {
	var out [EncodedSize]byte
	copy(out[:DigestSize], s.Digest[:])
	out[DigestSize] = s.Algorithm
	out[DigestSize+1] = s.Size
	return out
}

// Decode parses the wire form produced by Encode.
// Returns ErrShortBuffer for truncated input and ErrZeroField when any of
// the three fields decodes to zero.
func Decode(buf []byte) (Signature, error) {
	if len(buf) < EncodedSize {
		return Signature{}, fmt.Errorf("%w: got %d bytes, need %d", ErrShortBuffer, len(buf), EncodedSize)
	}
	var s Signature
	copy(s.Digest[:], buf[:DigestSize])
	s.Algorithm = buf[DigestSize]
	s.Size = buf[DigestSize+1]
	if !s.Valid() {
		return Signature{}, ErrZeroField
	}
	return s, nil
}

// Multihash returns the signature as a canonical multihash.
func (s Signature) Multihash() (multihash.Multihash, error) {
	return multihash.Encode(s.Digest[:], uint64(s.Algorithm))
}

// CID returns a CIDv1 (raw codec) wrapping the signature's multihash,
// for display and interchange with content-addressed stores.
func (s Signature) CID() (cid.Cid, error) {
	mh, err := s.Multihash()
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// String renders the signature as its CIDv1 string, or "<invalid>" when the
// multihash cannot be formed.
func (s Signature) String() string {
	c, err := s.CID()
	if err != nil {
		return "<invalid>"
	}
	return c.String()
}
