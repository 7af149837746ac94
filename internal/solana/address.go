package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known mints.
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// PublicKeyLen is the byte length of a decoded Solana address.
const PublicKeyLen = 32

var (
	ErrInvalidAddress = errors.New("invalid solana address")
	ErrOffCurve       = errors.New("address is not on the ed25519 curve")
)

// DecodeAddress decodes a base58 address and checks its length.
func DecodeAddress(addr string) ([]byte, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != PublicKeyLen {
		return nil, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(raw))
	}
	return raw, nil
}

// ValidateAddress reports whether addr is a well-formed account or mint address.
func ValidateAddress(addr string) error {
	_, err := DecodeAddress(addr)
	return err
}

// ValidateWallet checks that addr is a wallet owner: a valid address on the ed25519 curve.
// Program derived addresses are off-curve and cannot sign, so they are rejected.
func ValidateWallet(addr string) error {
	raw, err := DecodeAddress(addr)
	if err != nil {
		return err
	}
	if !IsOnCurve(raw) {
		return ErrOffCurve
	}
	return nil
}

// IsOnCurve reports whether point is a valid compressed ed25519 point.
func IsOnCurve(point []byte) bool {
	if len(point) != PublicKeyLen {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
