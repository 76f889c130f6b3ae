package entrypoint

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	self   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	target = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestDepositAndWithdraw(t *testing.T) {
	m := NewMemory(self)

	require.NoError(t, m.DepositTo(self, big.NewInt(500)))
	balance, err := m.BalanceOf(self)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), balance)

	require.NoError(t, m.WithdrawTo(target, big.NewInt(200)))
	balance, err = m.BalanceOf(self)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), balance)
	balance, err = m.BalanceOf(target)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), balance)

	err = m.WithdrawTo(target, big.NewInt(301))
	assert.Equal(t, ErrInsufficientDeposit, err)
}

func TestStakeLifecycle(t *testing.T) {
	m := NewMemory(self)

	require.NoError(t, m.AddStake(big.NewInt(100), 86400))
	assert.Equal(t, big.NewInt(100), m.StakeOf(self))

	err := m.WithdrawStake(target)
	assert.Equal(t, ErrStakeLocked, err)

	require.NoError(t, m.UnlockStake())
	require.NoError(t, m.WithdrawStake(target))
	assert.Equal(t, new(big.Int), m.StakeOf(self))

	balance, err := m.BalanceOf(target)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), balance)
}

func TestStakeRelocksOnAdd(t *testing.T) {
	m := NewMemory(self)
	require.NoError(t, m.AddStake(big.NewInt(100), 86400))
	require.NoError(t, m.UnlockStake())
	require.NoError(t, m.AddStake(big.NewInt(50), 86400))

	err := m.WithdrawStake(target)
	assert.Equal(t, ErrStakeLocked, err)
}
