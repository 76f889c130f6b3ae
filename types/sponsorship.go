package types

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Byte offsets of the paymasterAndData layout. The off-chain signer and the
// paymaster must agree on these byte for byte:
//   [0,20)  paymaster address, used by the entry point for routing
//   [20,84) validUntil then validAfter, each a 6-byte timestamp right-aligned
//           in a 32-byte word
//   [84,..) 64- or 65-byte sponsor signature
const (
	PaymasterDataTimestampOffset = 20
	PaymasterDataSignatureOffset = 84
)

const timestampBits = 48

var (
	ErrPaymasterDataLength = errors.New("paymaster data shorter than signature offset")
	ErrSignatureLength     = errors.New("sponsor signature must be 64 or 65 bytes")
	ErrTimestampEncoding   = errors.New("timestamp word exceeds 6 bytes")
)

// ValidityWindow bounds when a sponsorship authorization may be accepted.
// Enforcement against the clock belongs to the entry point, never here.
// SigFailed reports an authenticated-but-unauthorized sponsor; the entry
// point treats it as "do not sponsor" rather than as a fault.
type ValidityWindow struct {
	ValidUntil uint64
	ValidAfter uint64
	SigFailed  bool
}

// PostOpMode tells the settlement hook which execution path completed.
type PostOpMode uint8

const (
	PostOpModeOpSucceeded PostOpMode = iota
	PostOpModeOpReverted
	PostOpModePostOpReverted
)

// SponsorshipContext is the payload threaded from validation to settlement.
// The entry point holds it as an opaque blob between the two calls.
type SponsorshipContext struct {
	Sponsor       common.Address
	Requester     common.Address
	TotalReserved *big.Int
	CostOfPost    *big.Int
}

// SettlementRecord is the audit record emitted once per successful settlement.
type SettlementRecord struct {
	Sponsor    common.Address
	Requester  common.Address
	ActualCost *big.Int
}

// ParseTimestamps decodes the validUntil/validAfter pair from paymasterAndData.
// Each occupies a full 32-byte word with the value in the low 6 bytes; dirty
// upper bytes are rejected, matching what an abi.decode of uint48 would do.
func ParseTimestamps(paymasterAndData []byte) (validUntil uint64, validAfter uint64, err error) {
	if len(paymasterAndData) < PaymasterDataSignatureOffset {
		return 0, 0, ErrPaymasterDataLength
	}
	validUntil, err = parseTimestampWord(paymasterAndData[PaymasterDataTimestampOffset : PaymasterDataTimestampOffset+32])
	if err != nil {
		return 0, 0, err
	}
	validAfter, err = parseTimestampWord(paymasterAndData[PaymasterDataTimestampOffset+32 : PaymasterDataSignatureOffset])
	if err != nil {
		return 0, 0, err
	}
	return validUntil, validAfter, nil
}

func parseTimestampWord(word []byte) (uint64, error) {
	value := new(big.Int).SetBytes(word)
	if value.BitLen() > timestampBits {
		return 0, ErrTimestampEncoding
	}
	return value.Uint64(), nil
}

// ParseSignature extracts the sponsor signature segment from paymasterAndData.
// Any length other than 64 or 65 bytes is rejected before a recovery attempt.
func ParseSignature(paymasterAndData []byte) ([]byte, error) {
	if len(paymasterAndData) < PaymasterDataSignatureOffset {
		return nil, ErrPaymasterDataLength
	}
	signature := paymasterAndData[PaymasterDataSignatureOffset:]
	if len(signature) != 64 && len(signature) != 65 {
		return nil, ErrSignatureLength
	}
	return signature, nil
}

// PackTimestampWord right-aligns a 6-byte timestamp in a 32-byte word, the
// encoding the off-chain signer writes into paymasterAndData.
func PackTimestampWord(timestamp uint64) [32]byte {
	var word [32]byte
	value := new(big.Int).SetUint64(timestamp).Bytes()
	copy(word[32-len(value):], value)
	return word
}
