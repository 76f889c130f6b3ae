package entrypoint

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientDeposit = errors.New("withdrawal exceeds pooled deposit")
	ErrStakeLocked         = errors.New("stake has not been unlocked")
)

type stakeInfo struct {
	amount          *big.Int
	unstakeDelaySec uint32
	unlocked        bool
}

// Memory is an in-process entry point stand-in. It tracks pooled deposits and
// stake per account the way the on-chain coordinator does, so the paymaster
// can be wired identically against either.
type Memory struct {
	lock     sync.Mutex
	self     common.Address
	deposits map[common.Address]*big.Int
	stakes   map[common.Address]*stakeInfo
}

// NewMemory creates a coordinator stand-in acting on behalf of self, the
// account whose stake and withdrawals the coordinator-facing calls target.
func NewMemory(self common.Address) *Memory {
	return &Memory{
		self:     self,
		deposits: make(map[common.Address]*big.Int),
		stakes:   make(map[common.Address]*stakeInfo),
	}
}

func (m *Memory) DepositTo(account common.Address, amount *big.Int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	balance, ok := m.deposits[account]
	if !ok {
		balance = new(big.Int)
		m.deposits[account] = balance
	}
	balance.Add(balance, amount)
	return nil
}

func (m *Memory) BalanceOf(account common.Address) (*big.Int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	balance, ok := m.deposits[account]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *Memory) WithdrawTo(target common.Address, amount *big.Int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	balance, ok := m.deposits[m.self]
	if !ok || balance.Cmp(amount) < 0 {
		return ErrInsufficientDeposit
	}
	balance.Sub(balance, amount)

	targetBalance, ok := m.deposits[target]
	if !ok {
		targetBalance = new(big.Int)
		m.deposits[target] = targetBalance
	}
	targetBalance.Add(targetBalance, amount)
	return nil
}

func (m *Memory) AddStake(amount *big.Int, unstakeDelaySec uint32) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	stake, ok := m.stakes[m.self]
	if !ok {
		stake = &stakeInfo{amount: new(big.Int)}
		m.stakes[m.self] = stake
	}
	stake.amount.Add(stake.amount, amount)
	stake.unstakeDelaySec = unstakeDelaySec
	stake.unlocked = false
	return nil
}

func (m *Memory) UnlockStake() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	stake, ok := m.stakes[m.self]
	if !ok {
		return nil
	}
	stake.unlocked = true
	return nil
}

func (m *Memory) WithdrawStake(target common.Address) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	stake, ok := m.stakes[m.self]
	if !ok || stake.amount.Sign() == 0 {
		return nil
	}
	if !stake.unlocked {
		return ErrStakeLocked
	}

	targetBalance, ok := m.deposits[target]
	if !ok {
		targetBalance = new(big.Int)
		m.deposits[target] = targetBalance
	}
	targetBalance.Add(targetBalance, stake.amount)
	stake.amount = new(big.Int)
	return nil
}

// StakeOf reports the currently staked amount for an account.
func (m *Memory) StakeOf(account common.Address) *big.Int {
	m.lock.Lock()
	defer m.lock.Unlock()

	stake, ok := m.stakes[account]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(stake.amount)
}
