package paymaster

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	solsha3 "github.com/miguelmota/go-solidity-sha3"

	"github.com/Timi16/Etherspotpaymaster/db"
	"github.com/Timi16/Etherspotpaymaster/types"
)

// Deposit credits the caller's own sponsor balance and forwards the same
// value into the entry point's pooled deposit for this paymaster. Both moves
// happen together or not at all: the credit commits first, and a failed
// forward restores it, so neither side can outlive the other.
func (p *Paymaster) Deposit(sponsor common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	balance, err := p.readBalance(sponsor)
	if err != nil {
		return err
	}
	credited := new(big.Int).Add(balance, amount)
	if err := p.writeBalance(sponsor, credited); err != nil {
		return err
	}
	if err := p.entryPoint.DepositTo(p.config.Address, amount); err != nil {
		// The forward never happened; remove the credit.
		if restoreErr := p.writeBalance(sponsor, balance); restoreErr != nil {
			return restoreErr
		}
		return err
	}

	p.logger.Info().
		Str("sponsor", sponsor.Hex()).
		Str("amount", amount.String()).
		Msg("Sponsor deposit")
	return nil
}

// Withdraw debits the caller's sponsor balance and asks the entry point to
// release the same amount to target. The debit commits before the release;
// a failed release restores it. A second withdrawal for the same sponsor is
// rejected while the release is in flight.
func (p *Paymaster) Withdraw(sponsor common.Address, target common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	p.lock.Lock()
	if p.withdrawing[sponsor] {
		p.lock.Unlock()
		return ErrWithdrawInProgress
	}
	balance, err := p.readBalance(sponsor)
	if err != nil {
		p.lock.Unlock()
		return err
	}
	if balance.Cmp(amount) < 0 {
		p.lock.Unlock()
		return ErrInsufficientFunds
	}
	if err := p.writeBalance(sponsor, balance.Sub(balance, amount)); err != nil {
		p.lock.Unlock()
		return err
	}
	p.withdrawing[sponsor] = true
	p.lock.Unlock()

	releaseErr := p.entryPoint.WithdrawTo(target, amount)

	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.withdrawing, sponsor)
	if releaseErr != nil {
		// The release never happened; restore the debit.
		balance, err := p.readBalance(sponsor)
		if err != nil {
			return err
		}
		if err := p.writeBalance(sponsor, balance.Add(balance, amount)); err != nil {
			return err
		}
		return releaseErr
	}

	p.logger.Info().
		Str("sponsor", sponsor.Hex()).
		Str("target", target.Hex()).
		Str("amount", amount.String()).
		Msg("Sponsor withdrawal")
	return nil
}

// SponsorBalance reports a sponsor's current ledger balance.
func (p *Paymaster) SponsorBalance(sponsor common.Address) (*big.Int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.readBalance(sponsor)
}

// reserve atomically checks and debits a sponsor balance. The check and the
// debit form one critical section; no other balance mutation can interleave.
func (p *Paymaster) reserve(sponsor common.Address, amount *big.Int) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	balance, err := p.readBalance(sponsor)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: sponsor %s has %s, needs %s",
			ErrInsufficientSponsorFunds, sponsor.Hex(), balance, amount)
	}
	return p.writeBalance(sponsor, balance.Sub(balance, amount))
}

// refund credits funds back to a sponsor balance.
func (p *Paymaster) refund(sponsor common.Address, amount *big.Int) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	balance, err := p.readBalance(sponsor)
	if err != nil {
		return err
	}
	return p.writeBalance(sponsor, balance.Add(balance, amount))
}

// settle credits the refund and appends the audit record in one storage
// transaction. refund is signed; the resulting balance is floored at zero so
// an overrun reported by the entry point can never drive the ledger negative.
func (p *Paymaster) settle(sponsorship *types.SponsorshipContext, refund *big.Int, actualCost *big.Int) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	balance, err := p.readBalance(sponsorship.Sponsor)
	if err != nil {
		return err
	}
	balance.Add(balance, refund)
	if balance.Sign() < 0 {
		p.logger.Warn().
			Str("sponsor", sponsorship.Sponsor.Hex()).
			Str("overrun", new(big.Int).Neg(balance).String()).
			Msg("Actual cost exceeded reservation")
		balance.SetUint64(0)
	}

	record := &types.SettlementRecord{
		Sponsor:    sponsorship.Sponsor,
		Requester:  sponsorship.Requester,
		ActualCost: actualCost,
	}
	encodedRecord, err := p.serializer.SerializeSettlementRecord(record)
	if err != nil {
		return err
	}

	index, err := p.nextSettlementIndex()
	if err != nil {
		return err
	}
	indexKey := make([]byte, 8)
	binary.BigEndian.PutUint64(indexKey, index)

	tx := p.database.NewTx()
	if err := tx.Set(db.NamespaceSponsorBalance, sponsorship.Sponsor.Bytes(), balance.Bytes()); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Set(db.NamespaceSettlementRecord, indexKey, encodedRecord); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Set(db.NamespaceLastSettlementIndex, db.EmptyKey, indexKey); err != nil {
		tx.Discard()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	p.logger.Info().
		Str("settlementId", common.Bytes2Hex(settlementID(record))).
		Str("sponsor", record.Sponsor.Hex()).
		Str("requester", record.Requester.Hex()).
		Msg("Recorded settlement")
	return nil
}

// Settlements returns every recorded settlement in append order.
func (p *Paymaster) Settlements() ([]*types.SettlementRecord, error) {
	start := db.PrependNamespace(db.NamespaceSettlementRecord, db.EmptyKey)
	end := db.PrependNamespace(db.NamespaceSettlementRecord, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

	var records []*types.SettlementRecord
	iter := p.database.Iterator(start, end)
	for iter.Valid() {
		value, err := iter.Value()
		if err != nil {
			return nil, err
		}
		record, err := p.serializer.DeserializeSettlementRecord(value)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		if err := iter.Next(); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// settlementID derives a packed-keccak identifier for an audit record.
func settlementID(record *types.SettlementRecord) []byte {
	return solsha3.SoliditySHA3(
		solsha3.Address(record.Sponsor.Hex()),
		solsha3.Address(record.Requester.Hex()),
		solsha3.Uint256(record.ActualCost),
	)
}

func (p *Paymaster) nextSettlementIndex() (uint64, error) {
	value, exists, err := p.database.Get(db.NamespaceLastSettlementIndex, db.EmptyKey)
	if err != nil {
		return 0, err
	}
	if !exists || len(value) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(value) + 1, nil
}

func (p *Paymaster) readBalance(sponsor common.Address) (*big.Int, error) {
	value, exists, err := p.database.Get(db.NamespaceSponsorBalance, sponsor.Bytes())
	if err != nil {
		return nil, err
	}
	if !exists {
		return new(big.Int), nil
	}
	return new(big.Int).SetBytes(value), nil
}

func (p *Paymaster) writeBalance(sponsor common.Address, balance *big.Int) error {
	return p.database.Set(db.NamespaceSponsorBalance, sponsor.Bytes(), balance.Bytes())
}
