package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPaymasterAndData(paymaster common.Address, validUntil uint64, validAfter uint64, signature []byte) []byte {
	data := make([]byte, 0, PaymasterDataSignatureOffset+len(signature))
	data = append(data, paymaster.Bytes()...)
	untilWord := PackTimestampWord(validUntil)
	afterWord := PackTimestampWord(validAfter)
	data = append(data, untilWord[:]...)
	data = append(data, afterWord[:]...)
	return append(data, signature...)
}

func TestParseTimestamps(t *testing.T) {
	paymaster := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data := buildPaymasterAndData(paymaster, 2000, 1000, make([]byte, 65))

	validUntil, validAfter, err := ParseTimestamps(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), validUntil)
	assert.Equal(t, uint64(1000), validAfter)
}

func TestParseTimestampsMaxValue(t *testing.T) {
	max := uint64(1)<<48 - 1
	data := buildPaymasterAndData(common.Address{}, max, max, make([]byte, 64))

	validUntil, validAfter, err := ParseTimestamps(data)
	require.NoError(t, err)
	assert.Equal(t, max, validUntil)
	assert.Equal(t, max, validAfter)
}

func TestParseTimestampsDirtyUpperBytes(t *testing.T) {
	data := buildPaymasterAndData(common.Address{}, 2000, 1000, make([]byte, 65))
	// Flip a byte above the low 6 in the validUntil word.
	data[PaymasterDataTimestampOffset+5] = 0x01
	_, _, err := ParseTimestamps(data)
	assert.Equal(t, ErrTimestampEncoding, err)

	data = buildPaymasterAndData(common.Address{}, 2000, 1000, make([]byte, 65))
	data[PaymasterDataTimestampOffset+32] = 0x01
	_, _, err = ParseTimestamps(data)
	assert.Equal(t, ErrTimestampEncoding, err)
}

func TestParseTimestampsTruncatedData(t *testing.T) {
	_, _, err := ParseTimestamps(make([]byte, PaymasterDataSignatureOffset-1))
	assert.Equal(t, ErrPaymasterDataLength, err)
}

func TestParseSignature(t *testing.T) {
	signature := make([]byte, 65)
	signature[0] = 0xab
	data := buildPaymasterAndData(common.Address{}, 1, 0, signature)

	parsed, err := ParseSignature(data)
	require.NoError(t, err)
	assert.Equal(t, signature, parsed)

	compact := make([]byte, 64)
	data = buildPaymasterAndData(common.Address{}, 1, 0, compact)
	parsed, err = ParseSignature(data)
	require.NoError(t, err)
	assert.Len(t, parsed, 64)
}

func TestParseSignatureBadLength(t *testing.T) {
	data := buildPaymasterAndData(common.Address{}, 1, 0, make([]byte, 70))
	_, err := ParseSignature(data)
	assert.Equal(t, ErrSignatureLength, err)

	// exactly 84 bytes: the signature segment exists but is empty
	data = buildPaymasterAndData(common.Address{}, 1, 0, nil)
	_, err = ParseSignature(data)
	assert.Equal(t, ErrSignatureLength, err)

	_, err = ParseSignature(make([]byte, PaymasterDataSignatureOffset-1))
	assert.Equal(t, ErrPaymasterDataLength, err)
}

func TestPackTimestampWordRoundTrip(t *testing.T) {
	for _, timestamp := range []uint64{0, 1, 1700000000, 1<<48 - 1} {
		word := PackTimestampWord(timestamp)
		parsed, err := parseTimestampWord(word[:])
		require.NoError(t, err)
		assert.Equal(t, timestamp, parsed)
	}
}
