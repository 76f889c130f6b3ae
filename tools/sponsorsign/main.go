package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"

	"github.com/Timi16/Etherspotpaymaster/types"
	"github.com/Timi16/Etherspotpaymaster/utils"
)

var (
	userOpFile = flag.String("userop", "", "Path to a JSON file holding the packed user operation")
	keystore   = flag.String("keystore", "", "Sponsor keystore file")
	passphrase = flag.String("passphrase", "", "Sponsor keystore passphrase")
	paymaster  = flag.String("paymaster", "", "Paymaster address")
	chainID    = flag.Int64("chainid", 1, "Chain id the sponsorship is bound to")
	validUntil = flag.Uint64("validuntil", 0, "Sponsorship not accepted after this timestamp (0 for no bound)")
	validAfter = flag.Uint64("validafter", 0, "Sponsorship not accepted before this timestamp")
)

// userOpJSON mirrors PackedUserOperation with hex-encoded byte fields, the
// form bundler tooling emits.
type userOpJSON struct {
	Sender             common.Address `json:"sender"`
	Nonce              *hexutil.Big   `json:"nonce"`
	InitCode           hexutil.Bytes  `json:"initCode"`
	CallData           hexutil.Bytes  `json:"callData"`
	AccountGasLimits   hexutil.Bytes  `json:"accountGasLimits"`
	PreVerificationGas *hexutil.Big   `json:"preVerificationGas"`
	GasFees            hexutil.Bytes  `json:"gasFees"`
}

func main() {
	flag.Parse()
	log.Logger = log.With().Caller().Logger()

	opBytes, err := ioutil.ReadFile(*userOpFile)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	var opJSON userOpJSON
	if err = json.Unmarshal(opBytes, &opJSON); err != nil {
		log.Fatal().Err(err).Send()
	}
	op, err := toPackedOp(&opJSON)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	privateKey, err := utils.GetPrivateKeyFromKeystore(*keystore, *passphrase)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	serializer, err := types.NewSerializer()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	paymasterAddress := common.HexToAddress(*paymaster)
	preimage, err := serializer.SerializeSponsorshipPreimage(
		op, big.NewInt(*chainID), paymasterAddress, *validUntil, *validAfter)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	hash := crypto.Keccak256Hash(preimage)
	signature, err := utils.SignHash(privateKey, hash.Bytes())
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	data := make([]byte, 0, types.PaymasterDataSignatureOffset+len(signature))
	data = append(data, paymasterAddress.Bytes()...)
	untilWord := types.PackTimestampWord(*validUntil)
	afterWord := types.PackTimestampWord(*validAfter)
	data = append(data, untilWord[:]...)
	data = append(data, afterWord[:]...)
	data = append(data, signature...)

	log.Info().
		Str("sponsor", crypto.PubkeyToAddress(privateKey.PublicKey).Hex()).
		Str("hash", hash.Hex()).
		Str("paymasterAndData", hexutil.Encode(data)).
		Send()
}

func toPackedOp(opJSON *userOpJSON) (*types.PackedUserOperation, error) {
	op := &types.PackedUserOperation{
		Sender:             opJSON.Sender,
		Nonce:              (*big.Int)(opJSON.Nonce),
		InitCode:           opJSON.InitCode,
		CallData:           opJSON.CallData,
		PreVerificationGas: (*big.Int)(opJSON.PreVerificationGas),
	}
	if op.Nonce == nil {
		op.Nonce = new(big.Int)
	}
	if op.PreVerificationGas == nil {
		op.PreVerificationGas = new(big.Int)
	}
	copy(op.AccountGasLimits[:], opJSON.AccountGasLimits)
	copy(op.GasFees[:], opJSON.GasFees)
	return op, nil
}
