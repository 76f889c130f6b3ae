package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Serializer holds the abi argument layouts shared between the paymaster and
// the off-chain sponsor signer. The sponsorship preimage layout is a wire
// contract: both sides must produce identical bytes for identical inputs.
type Serializer struct {
	typeRegistry                 *typeRegistry
	sponsorshipPreimageArguments abi.Arguments
	sponsorshipContextArguments  abi.Arguments
	settlementRecordArguments    abi.Arguments
}

func NewSerializer() (*Serializer, error) {
	typeRegistry, err := newTypeRegistry()
	if err != nil {
		return nil, err
	}
	return &Serializer{
		typeRegistry:                 typeRegistry,
		sponsorshipPreimageArguments: createSponsorshipPreimageArguments(typeRegistry),
		sponsorshipContextArguments:  createSponsorshipContextArguments(typeRegistry),
		settlementRecordArguments:    createSettlementRecordArguments(typeRegistry),
	}, nil
}

func createSponsorshipPreimageArguments(registry *typeRegistry) abi.Arguments {
	return abi.Arguments{
		{Name: "sender", Type: registry.addressTy},
		{Name: "nonce", Type: registry.uint256Ty},
		{Name: "initCodeHash", Type: registry.bytes32Ty},
		{Name: "callDataHash", Type: registry.bytes32Ty},
		{Name: "accountGasLimits", Type: registry.bytes32Ty},
		{Name: "preVerificationGas", Type: registry.uint256Ty},
		{Name: "gasFees", Type: registry.bytes32Ty},
		{Name: "chainId", Type: registry.uint256Ty},
		{Name: "paymaster", Type: registry.addressTy},
		{Name: "validUntil", Type: registry.uint48Ty},
		{Name: "validAfter", Type: registry.uint48Ty},
	}
}

func createSponsorshipContextArguments(registry *typeRegistry) abi.Arguments {
	return abi.Arguments{
		{Name: "sponsor", Type: registry.addressTy},
		{Name: "requester", Type: registry.addressTy},
		{Name: "totalReserved", Type: registry.uint256Ty},
		{Name: "costOfPost", Type: registry.uint256Ty},
	}
}

func createSettlementRecordArguments(registry *typeRegistry) abi.Arguments {
	return abi.Arguments{
		{Name: "sponsor", Type: registry.addressTy},
		{Name: "requester", Type: registry.addressTy},
		{Name: "actualCost", Type: registry.uint256Ty},
	}
}

// SerializeSponsorshipPreimage encodes the stable fields of a user operation
// together with the chain id, the paymaster address and the validity window.
// PaymasterAndData is deliberately excluded: the sponsor signature cannot
// cover its own bytes.
func (serializer *Serializer) SerializeSponsorshipPreimage(
	op *PackedUserOperation,
	chainID *big.Int,
	paymaster common.Address,
	validUntil uint64,
	validAfter uint64,
) ([]byte, error) {
	return serializer.sponsorshipPreimageArguments.Pack(
		op.Sender,
		op.Nonce,
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		op.AccountGasLimits,
		op.PreVerificationGas,
		op.GasFees,
		chainID,
		paymaster,
		new(big.Int).SetUint64(validUntil),
		new(big.Int).SetUint64(validAfter),
	)
}

// SerializeSponsorshipContext encodes the context blob threaded from
// validation to settlement.
func (serializer *Serializer) SerializeSponsorshipContext(context *SponsorshipContext) ([]byte, error) {
	return serializer.sponsorshipContextArguments.Pack(
		context.Sponsor,
		context.Requester,
		context.TotalReserved,
		context.CostOfPost,
	)
}

// DeserializeSponsorshipContext decodes a context blob produced by
// SerializeSponsorshipContext. Any other input is a protocol violation by
// the caller.
func (serializer *Serializer) DeserializeSponsorshipContext(data []byte) (*SponsorshipContext, error) {
	context := new(SponsorshipContext)
	if err := serializer.sponsorshipContextArguments.Unpack(context, data); err != nil {
		return nil, err
	}
	return context, nil
}

// SerializeSettlementRecord encodes a settlement audit record for storage.
func (serializer *Serializer) SerializeSettlementRecord(record *SettlementRecord) ([]byte, error) {
	return serializer.settlementRecordArguments.Pack(
		record.Sponsor,
		record.Requester,
		record.ActualCost,
	)
}

// DeserializeSettlementRecord decodes a stored settlement audit record.
func (serializer *Serializer) DeserializeSettlementRecord(data []byte) (*SettlementRecord, error) {
	record := new(SettlementRecord)
	if err := serializer.settlementRecordArguments.Unpack(record, data); err != nil {
		return nil, err
	}
	return record, nil
}
