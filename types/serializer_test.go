package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func testOp() *PackedUserOperation {
	op := &PackedUserOperation{
		Sender:             common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Nonce:              big.NewInt(7),
		InitCode:           []byte{},
		CallData:           common.Hex2Bytes("b61d27f6"),
		PreVerificationGas: big.NewInt(21000),
	}
	op.AccountGasLimits[15] = 0x10
	op.AccountGasLimits[31] = 0x20
	op.GasFees[31] = 0x01
	return op
}

func TestPreimageDeterministic(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	chainID := big.NewInt(1)
	paymaster := common.HexToAddress("0x4444444444444444444444444444444444444444")

	first, err := serializer.SerializeSponsorshipPreimage(testOp(), chainID, paymaster, 2000, 1000)
	require.NoError(t, err)
	second, err := serializer.SerializeSponsorshipPreimage(testOp(), chainID, paymaster, 2000, 1000)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// 11 static words
	assert.Len(t, first, 11*32)
}

func TestPreimageExcludesPaymasterAndData(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	chainID := big.NewInt(1)
	paymaster := common.HexToAddress("0x4444444444444444444444444444444444444444")

	base, err := serializer.SerializeSponsorshipPreimage(testOp(), chainID, paymaster, 2000, 1000)
	require.NoError(t, err)

	withData := testOp()
	withData.PaymasterAndData = buildPaymasterAndData(paymaster, 2000, 1000, make([]byte, 65))
	withData.Signature = []byte{0xde, 0xad}
	modified, err := serializer.SerializeSponsorshipPreimage(withData, chainID, paymaster, 2000, 1000)
	require.NoError(t, err)

	assert.Equal(t, base, modified)
}

func TestPreimageBindsDomain(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	paymaster := common.HexToAddress("0x4444444444444444444444444444444444444444")
	base, err := serializer.SerializeSponsorshipPreimage(testOp(), big.NewInt(1), paymaster, 2000, 1000)
	require.NoError(t, err)

	otherChain, err := serializer.SerializeSponsorshipPreimage(testOp(), big.NewInt(5), paymaster, 2000, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherChain)

	otherPaymaster, err := serializer.SerializeSponsorshipPreimage(
		testOp(), big.NewInt(1), common.HexToAddress("0x5555555555555555555555555555555555555555"), 2000, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherPaymaster)

	otherWindow, err := serializer.SerializeSponsorshipPreimage(testOp(), big.NewInt(1), paymaster, 2001, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherWindow)
}

func TestPreimageHashMatchesLegacyKeccak(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	preimage, err := serializer.SerializeSponsorshipPreimage(
		testOp(), big.NewInt(1), common.HexToAddress("0x4444444444444444444444444444444444444444"), 2000, 1000)
	require.NoError(t, err)

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(preimage)
	assert.Equal(t, hasher.Sum(nil), crypto.Keccak256(preimage))
}

func TestSponsorshipContextRoundTrip(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	context := &SponsorshipContext{
		Sponsor:       common.HexToAddress("0x6666666666666666666666666666666666666666"),
		Requester:     common.HexToAddress("0x3333333333333333333333333333333333333333"),
		TotalReserved: big.NewInt(140),
		CostOfPost:    big.NewInt(40),
	}
	encoded, err := serializer.SerializeSponsorshipContext(context)
	require.NoError(t, err)

	decoded, err := serializer.DeserializeSponsorshipContext(encoded)
	require.NoError(t, err)
	assert.Equal(t, context, decoded)
}

func TestDeserializeSponsorshipContextGarbage(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	_, err = serializer.DeserializeSponsorshipContext([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestSettlementRecordRoundTrip(t *testing.T) {
	serializer, err := NewSerializer()
	require.NoError(t, err)

	record := &SettlementRecord{
		Sponsor:    common.HexToAddress("0x6666666666666666666666666666666666666666"),
		Requester:  common.HexToAddress("0x3333333333333333333333333333333333333333"),
		ActualCost: big.NewInt(80),
	}
	encoded, err := serializer.SerializeSettlementRecord(record)
	require.NoError(t, err)

	decoded, err := serializer.DeserializeSettlementRecord(encoded)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}
