package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestPackedGasAccessors(t *testing.T) {
	op := &PackedUserOperation{}
	// verificationGasLimit 0x0102 in the high half, callGasLimit 0x0304 low
	op.AccountGasLimits[14] = 0x01
	op.AccountGasLimits[15] = 0x02
	op.AccountGasLimits[30] = 0x03
	op.AccountGasLimits[31] = 0x04
	// maxPriorityFeePerGas 5 high, maxFeePerGas 7 low
	op.GasFees[15] = 0x05
	op.GasFees[31] = 0x07

	assert.Equal(t, big.NewInt(0x0102), op.VerificationGasLimit())
	assert.Equal(t, big.NewInt(0x0304), op.CallGasLimit())
	assert.Equal(t, big.NewInt(0x05), op.MaxPriorityFeePerGas())
	assert.Equal(t, big.NewInt(0x07), op.MaxFeePerGas())
}

func TestPaymasterAddress(t *testing.T) {
	paymaster := common.HexToAddress("0x2222222222222222222222222222222222222222")
	op := &PackedUserOperation{
		PaymasterAndData: buildPaymasterAndData(paymaster, 1, 0, make([]byte, 65)),
	}
	assert.Equal(t, paymaster, op.PaymasterAddress())

	empty := &PackedUserOperation{}
	assert.Equal(t, common.Address{}, empty.PaymasterAddress())
}
