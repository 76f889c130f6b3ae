package paymaster

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Timi16/Etherspotpaymaster/db"
	"github.com/Timi16/Etherspotpaymaster/log"
	"github.com/Timi16/Etherspotpaymaster/types"
	"github.com/Timi16/Etherspotpaymaster/utils"
)

// DefaultPostOpGas is the fixed gas estimate for the settlement call itself,
// charged at the operation's own max fee rate and reserved alongside the
// entry point's cost estimate.
const DefaultPostOpGas = 40000

type Config struct {
	// Address identifies this paymaster; it is the routing prefix of
	// paymasterAndData and part of the signed hash domain.
	Address common.Address

	// Owner may manage stake and admin surfaces.
	Owner common.Address

	// EntryPointAddress is the only caller admitted into validation and
	// settlement. Fixed at construction.
	EntryPointAddress common.Address

	// ChainID is mixed into the signed hash domain.
	ChainID *big.Int

	// PostOpGas overrides DefaultPostOpGas when non-zero.
	PostOpGas uint64

	// EntryPointGuard and OwnerGuard replace the default address checks
	// when set. Used by tests to swap the capability check.
	EntryPointGuard CallerGuard
	OwnerGuard      CallerGuard
}

// Paymaster sponsors gas for user operations whose sponsorship was signed
// off-chain by a registered sponsor. Validation reserves funds from the
// sponsor's ledger balance; settlement reconciles the reservation against
// actual cost and credits back the overage.
type Paymaster struct {
	config     Config
	postOpGas  uint64
	entryPoint EntryPoint
	registry   SponsorRegistry
	serializer *types.Serializer
	database   db.DB
	logger     *log.Logger

	entryPointGuard CallerGuard
	ownerGuard      CallerGuard

	// lock serializes every sponsor balance mutation: deposits, withdrawals,
	// reservations and refunds.
	lock        sync.Mutex
	withdrawing map[common.Address]bool
}

func New(config Config, database db.DB, entryPoint EntryPoint, registry SponsorRegistry) (*Paymaster, error) {
	serializer, err := types.NewSerializer()
	if err != nil {
		return nil, err
	}

	postOpGas := config.PostOpGas
	if postOpGas == 0 {
		postOpGas = DefaultPostOpGas
	}

	entryPointGuard := config.EntryPointGuard
	if entryPointGuard == nil {
		entryPointGuard = AddressGuard(config.EntryPointAddress)
	}
	ownerGuard := config.OwnerGuard
	if ownerGuard == nil {
		ownerGuard = AddressGuard(config.Owner)
	}

	return &Paymaster{
		config:          config,
		postOpGas:       postOpGas,
		entryPoint:      entryPoint,
		registry:        registry,
		serializer:      serializer,
		database:        database,
		logger:          log.NewLogger("paymaster"),
		entryPointGuard: entryPointGuard,
		ownerGuard:      ownerGuard,
		withdrawing:     make(map[common.Address]bool),
	}, nil
}

// GetHash computes the sponsorship hash for op bound to the given validity
// window. It covers the operation's stable fields, the chain id and this
// paymaster's address, and deliberately excludes paymasterAndData. The
// off-chain sponsor signs the personal-message-prefixed form of this value.
func (p *Paymaster) GetHash(op *types.PackedUserOperation, validUntil uint64, validAfter uint64) (common.Hash, error) {
	preimage, err := p.serializer.SerializeSponsorshipPreimage(
		op, p.config.ChainID, p.config.Address, validUntil, validAfter)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(preimage), nil
}

// ValidatePaymasterUserOp is the validation hook invoked by the entry point
// exactly once per operation, before execution.
//
// Hard failures (malformed paymasterAndData, unrecoverable signature,
// insufficient sponsor funds) return an error and leave the ledger untouched.
// An authenticated-but-unauthorized sponsor is a soft rejection instead: a
// nil context and a window with SigFailed set, so the entry point can fall
// back to another payment path.
//
// On success the sponsor's balance has been debited by
// maxCost + maxFeePerGas*postOpGas and the returned context must be handed
// to PostOp exactly once.
func (p *Paymaster) ValidatePaymasterUserOp(
	caller common.Address,
	op *types.PackedUserOperation,
	opHash common.Hash,
	maxCost *big.Int,
) ([]byte, *types.ValidityWindow, error) {
	if !p.entryPointGuard(caller) {
		return nil, nil, ErrUnauthorizedCaller
	}

	validUntil, validAfter, err := types.ParseTimestamps(op.PaymasterAndData)
	if err != nil {
		return nil, nil, err
	}
	signature, err := types.ParseSignature(op.PaymasterAndData)
	if err != nil {
		return nil, nil, err
	}

	hash, err := p.GetHash(op, validUntil, validAfter)
	if err != nil {
		return nil, nil, err
	}

	sponsor, err := utils.RecoverSigner(hash.Bytes(), signature)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSignatureRecovery, err)
	}

	authorized, err := p.registry.IsAuthorized(sponsor, op.Sender)
	if err != nil {
		return nil, nil, err
	}
	window := &types.ValidityWindow{ValidUntil: validUntil, ValidAfter: validAfter}
	if !authorized {
		// Valid signature, unregistered pair. No funds move; the entry
		// point decides what to do with the operation.
		p.logger.Debug().
			Str("sponsor", sponsor.Hex()).
			Str("requester", op.Sender.Hex()).
			Msg("Sponsor not registered for requester")
		window.SigFailed = true
		return nil, window, nil
	}

	costOfPost := new(big.Int).Mul(op.MaxFeePerGas(), new(big.Int).SetUint64(p.postOpGas))
	totalReserved := new(big.Int).Add(maxCost, costOfPost)

	if err := p.reserve(sponsor, totalReserved); err != nil {
		return nil, nil, err
	}

	context, err := p.serializer.SerializeSponsorshipContext(&types.SponsorshipContext{
		Sponsor:       sponsor,
		Requester:     op.Sender,
		TotalReserved: totalReserved,
		CostOfPost:    costOfPost,
	})
	if err != nil {
		// Undo the reservation; the entry point never saw a context.
		p.refund(sponsor, totalReserved)
		return nil, nil, err
	}

	p.logger.Debug().
		Str("sponsor", sponsor.Hex()).
		Str("requester", op.Sender.Hex()).
		Str("opHash", opHash.Hex()).
		Str("totalReserved", totalReserved.String()).
		Msg("Reserved sponsor funds")

	return context, window, nil
}

// PostOp is the settlement hook invoked by the entry point exactly once per
// successful validation, after execution. The mode is accepted for both the
// executed and reverted paths; the refund arithmetic is identical since
// actualGasCost reflects whichever path ran.
func (p *Paymaster) PostOp(
	caller common.Address,
	mode types.PostOpMode,
	context []byte,
	actualGasCost *big.Int,
	actualUserOpFeePerGas *big.Int,
) error {
	if !p.entryPointGuard(caller) {
		return ErrUnauthorizedCaller
	}

	sponsorship, err := p.serializer.DeserializeSponsorshipContext(context)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}

	consumed := new(big.Int).Add(actualGasCost, sponsorship.CostOfPost)
	refund := new(big.Int).Sub(sponsorship.TotalReserved, consumed)

	if err := p.settle(sponsorship, refund, actualGasCost); err != nil {
		return err
	}

	p.logger.Info().
		Str("sponsor", sponsorship.Sponsor.Hex()).
		Str("requester", sponsorship.Requester.Hex()).
		Int("mode", int(mode)).
		Str("actualGasCost", actualGasCost.String()).
		Str("actualUserOpFeePerGas", actualUserOpFeePerGas.String()).
		Str("refund", refund.String()).
		Msg("Settled sponsored operation")

	return nil
}
