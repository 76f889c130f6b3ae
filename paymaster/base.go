package paymaster

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EntryPoint is the coordinator-side interface this paymaster consumes:
// pooled deposit moves and stake management, acting on the paymaster's own
// account.
type EntryPoint interface {
	DepositTo(account common.Address, amount *big.Int) error
	BalanceOf(account common.Address) (*big.Int, error)
	WithdrawTo(target common.Address, amount *big.Int) error
	AddStake(amount *big.Int, unstakeDelaySec uint32) error
	UnlockStake() error
	WithdrawStake(target common.Address) error
}

// SponsorRegistry answers whether a sponsor has authorized paying for a
// requester's operations. Maintained outside this system; queried once per
// validation, never mutated here.
type SponsorRegistry interface {
	IsAuthorized(sponsor common.Address, requester common.Address) (bool, error)
}

// CallerGuard is the capability check applied to a privileged surface.
// Injected so it can be swapped in tests without touching the paymaster.
type CallerGuard func(caller common.Address) bool

// AddressGuard admits exactly one caller identity.
func AddressGuard(allowed common.Address) CallerGuard {
	return func(caller common.Address) bool {
		return caller == allowed
	}
}

// DepositStake moves stake into the entry point. Owner only.
func (p *Paymaster) DepositStake(caller common.Address, amount *big.Int, unstakeDelaySec uint32) error {
	if !p.ownerGuard(caller) {
		return ErrUnauthorizedOwner
	}
	return p.entryPoint.AddStake(amount, unstakeDelaySec)
}

// UnlockStake starts the unstake delay at the entry point. Owner only.
func (p *Paymaster) UnlockStake(caller common.Address) error {
	if !p.ownerGuard(caller) {
		return ErrUnauthorizedOwner
	}
	return p.entryPoint.UnlockStake()
}

// WithdrawStake releases unlocked stake from the entry point to target.
// Owner only.
func (p *Paymaster) WithdrawStake(caller common.Address, target common.Address) error {
	if !p.ownerGuard(caller) {
		return ErrUnauthorizedOwner
	}
	return p.entryPoint.WithdrawStake(target)
}

// CurrentDeposit reports this paymaster's pooled balance as tracked by the
// entry point.
func (p *Paymaster) CurrentDeposit() (*big.Int, error) {
	return p.entryPoint.BalanceOf(p.config.Address)
}
