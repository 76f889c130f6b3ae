package utils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrSignatureLength = errors.New("signature must be 64 or 65 bytes")

// SigIsValid reports whether sig over hash was produced by signer.
func SigIsValid(signer common.Address, hash []byte, sig []byte) bool {
	recoveredAddr, err := RecoverSigner(hash, sig)
	if err != nil {
		return false
	}
	return recoveredAddr == signer
}

// RecoverSigner recovers the address that signed the prefixed form of hash.
// Accepts 65-byte r||s||v signatures (v in {0,1} or {27,28}) and 64-byte
// EIP-2098 compact r||vs signatures.
func RecoverSigner(hash []byte, sig []byte) (common.Address, error) {
	normalized, err := normalizeSignature(sig)
	if err != nil {
		return common.Address{}, err
	}
	pubKey, err := crypto.SigToPub(PrefixedHash(hash), normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// SignHash signs the prefixed form of hash, returning a 65-byte r||s||v
// signature with v in {0,1}.
func SignHash(privateKey *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	return crypto.Sign(PrefixedHash(hash), privateKey)
}

// PrefixedHash applies the standard personal-message prefix to a 32-byte hash.
// This is the exact value the sponsor's off-chain key signs.
func PrefixedHash(hash []byte) []byte {
	return crypto.Keccak256([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(hash))), hash)
}

// normalizeSignature converts either accepted encoding into the 65-byte
// r||s||v form with v in {0,1} expected by SigToPub.
func normalizeSignature(sig []byte) ([]byte, error) {
	switch len(sig) {
	case 65:
		normalized := make([]byte, 65)
		copy(normalized, sig)
		if normalized[64] >= 27 {
			normalized[64] -= 27
		}
		return normalized, nil
	case 64:
		// EIP-2098 compact: the recovery bit rides in the top bit of s
		normalized := make([]byte, 65)
		copy(normalized[:32], sig[:32])
		copy(normalized[32:64], sig[32:64])
		normalized[64] = sig[32] >> 7
		normalized[32] &= 0x7f
		return normalized, nil
	default:
		return nil, ErrSignatureLength
	}
}

// ToCompactSignature converts a 65-byte r||s||v signature into the 64-byte
// EIP-2098 form.
func ToCompactSignature(sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, ErrSignatureLength
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	compact := make([]byte, 64)
	copy(compact[:32], sig[:32])
	copy(compact[32:], sig[32:64])
	compact[32] |= v << 7
	return compact, nil
}

func GetPrivateKeyFromKeystore(path string, password string) (*ecdsa.PrivateKey, error) {
	ksBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(ksBytes, password)
	if err != nil {
		return nil, err
	}
	return key.PrivateKey, nil
}

func GetAuthFromKeystore(path string, password string) (*bind.TransactOpts, error) {
	privateKey, err := GetPrivateKeyFromKeystore(path, password)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactor(privateKey), nil
}
