package entity

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidTokenID is returned when a value cannot be represented as a TokenID.
var ErrInvalidTokenID = errors.New("invalid token id")

// TokenID identifies a token within the collection's contract.
type TokenID uint64

// TokenIDFromBig converts a uint256 returned by the contract into a TokenID.
func TokenIDFromBig(v *big.Int) (TokenID, error) {
	if v == nil || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTokenID, v)
	}
	return TokenID(v.Uint64()), nil
}

// ParseTokenID parses a decimal or 0x-prefixed hex token id.
func ParseTokenID(s string) (TokenID, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTokenID, s)
	}
	return TokenID(v), nil
}

// Big returns the id as a uint256 argument for contract calls.
func (id TokenID) Big() *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// TokenRecord is the on-chain view of one token: its owner and metadata URI.
type TokenRecord struct {
	ID       TokenID
	TokenURI string
	Owner    common.Address
}

// NewTokenRecord creates a TokenRecord. The URI is stored as returned by the
// contract; it is normalised later, when resolving the metadata.
func NewTokenRecord(id TokenID, tokenURI string, owner common.Address) (*TokenRecord, error) {
	r := &TokenRecord{
		ID:       id,
		TokenURI: tokenURI,
		Owner:    owner,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TokenRecord) validate() error {
	if r.Owner == (common.Address{}) {
		return fmt.Errorf("token %s: owner must not be the zero address", r.ID)
	}
	return nil
}

// ResolvedNFT is a TokenRecord with its display-ready image location.
type ResolvedNFT struct {
	TokenRecord
	ImageURL string
	// Placeholder is set when ImageURL is the fallback image.
	Placeholder bool
}

// NewResolvedNFT pairs a record with an image URL. An empty imageURL is
// replaced by placeholder.
func NewResolvedNFT(record TokenRecord, imageURL, placeholder string) ResolvedNFT {
	if imageURL == "" || imageURL == placeholder {
		return ResolvedNFT{TokenRecord: record, ImageURL: placeholder, Placeholder: true}
	}
	return ResolvedNFT{TokenRecord: record, ImageURL: imageURL}
}
