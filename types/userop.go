package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PackedUserOperation is the packed form of a user operation as handed to the
// entry point. AccountGasLimits and GasFees each carry two 128-bit values in
// one 32-byte word.
type PackedUserOperation struct {
	Sender             common.Address `json:"sender"`
	Nonce              *big.Int       `json:"nonce"`
	InitCode           []byte         `json:"initCode"`
	CallData           []byte         `json:"callData"`
	AccountGasLimits   [32]byte       `json:"accountGasLimits"`
	PreVerificationGas *big.Int       `json:"preVerificationGas"`
	GasFees            [32]byte       `json:"gasFees"`
	PaymasterAndData   []byte         `json:"paymasterAndData"`
	Signature          []byte         `json:"signature"`
}

// VerificationGasLimit returns the verification gas limit packed into the
// high 128 bits of AccountGasLimits.
func (op *PackedUserOperation) VerificationGasLimit() *big.Int {
	return new(big.Int).SetBytes(op.AccountGasLimits[:16])
}

// CallGasLimit returns the call gas limit packed into the low 128 bits of
// AccountGasLimits.
func (op *PackedUserOperation) CallGasLimit() *big.Int {
	return new(big.Int).SetBytes(op.AccountGasLimits[16:])
}

// MaxPriorityFeePerGas returns the priority fee packed into the high 128 bits
// of GasFees.
func (op *PackedUserOperation) MaxPriorityFeePerGas() *big.Int {
	return new(big.Int).SetBytes(op.GasFees[:16])
}

// MaxFeePerGas returns the max fee per gas packed into the low 128 bits of
// GasFees.
func (op *PackedUserOperation) MaxFeePerGas() *big.Int {
	return new(big.Int).SetBytes(op.GasFees[16:])
}

// PaymasterAddress extracts the routing address from PaymasterAndData.
// Returns the zero address if no paymaster is set.
func (op *PackedUserOperation) PaymasterAddress() common.Address {
	if len(op.PaymasterAndData) < PaymasterDataTimestampOffset {
		return common.Address{}
	}
	return common.BytesToAddress(op.PaymasterAndData[:PaymasterDataTimestampOffset])
}
