package main

import (
	"crypto/ecdsa"
	"flag"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	paymasterdb "github.com/Timi16/Etherspotpaymaster/db"
	"github.com/Timi16/Etherspotpaymaster/db/badgerdb"
	"github.com/Timi16/Etherspotpaymaster/db/memorydb"
	"github.com/Timi16/Etherspotpaymaster/entrypoint"
	"github.com/Timi16/Etherspotpaymaster/paymaster"
	"github.com/Timi16/Etherspotpaymaster/registry"
	"github.com/Timi16/Etherspotpaymaster/types"
	"github.com/Timi16/Etherspotpaymaster/utils"
)

var (
	config          = flag.String("config", "", "Config directory")
	dbDir           = flag.String("db", "", "Ledger DB directory (in-memory when empty)")
	sponsorKeystore = flag.String("sponsorkeystore", "", "Sponsor keystore file (a fresh key is generated when empty)")
)

// Runs one full sponsorship cycle against an in-process entry point:
// deposit, validate, settle, withdraw the remainder.
func main() {
	flag.Parse()
	log.Logger = log.With().Caller().Logger()

	viper.SetDefault("chainId", 1337)
	viper.SetDefault("postOpGas", paymaster.DefaultPostOpGas)
	if *config != "" {
		viper.AddConfigPath(*config)
		viper.SetConfigName("paymaster")
		viper.MergeInConfig()
	}

	var database paymasterdb.DB
	if *dbDir != "" {
		badgerDB, err := badgerdb.NewDB(*dbDir)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		database = badgerDB
	} else {
		database = memorydb.NewDB()
	}
	defer database.Close()

	sponsorKey, err := loadOrGenerateKey()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	sponsor := crypto.PubkeyToAddress(sponsorKey.PublicKey)

	paymasterAddress := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	entryPointAddress := common.HexToAddress("0x0000000071727de22e5e9d8baf0edac6f37da032")
	requester := common.HexToAddress("0x000000000000000000000000000000000000b0b0")

	entryPoint := entrypoint.NewMemory(paymasterAddress)
	sponsorRegistry := registry.NewMemory()
	sponsorRegistry.Authorize(sponsor, requester)

	p, err := paymaster.New(
		paymaster.Config{
			Address:           paymasterAddress,
			Owner:             sponsor,
			EntryPointAddress: entryPointAddress,
			ChainID:           big.NewInt(viper.GetInt64("chainId")),
			PostOpGas:         uint64(viper.GetInt64("postOpGas")),
		},
		database,
		entryPoint,
		sponsorRegistry,
	)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	if err = p.Deposit(sponsor, big.NewInt(1000000)); err != nil {
		log.Fatal().Err(err).Send()
	}

	op := &types.PackedUserOperation{
		Sender:             requester,
		Nonce:              big.NewInt(0),
		InitCode:           []byte{},
		CallData:           []byte{},
		PreVerificationGas: big.NewInt(21000),
	}
	op.GasFees[31] = 0x02 // maxFeePerGas = 2 wei

	validUntil := uint64(0)
	validAfter := uint64(0)
	hash, err := p.GetHash(op, validUntil, validAfter)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	signature, err := utils.SignHash(sponsorKey, hash.Bytes())
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	data := make([]byte, 0, types.PaymasterDataSignatureOffset+len(signature))
	data = append(data, paymasterAddress.Bytes()...)
	untilWord := types.PackTimestampWord(validUntil)
	afterWord := types.PackTimestampWord(validAfter)
	data = append(data, untilWord[:]...)
	data = append(data, afterWord[:]...)
	op.PaymasterAndData = append(data, signature...)

	context, window, err := p.ValidatePaymasterUserOp(
		entryPointAddress, op, crypto.Keccak256Hash(op.CallData), big.NewInt(100000))
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if context == nil {
		log.Fatal().Bool("sigFailed", window.SigFailed).Msg("Sponsorship rejected")
	}
	logBalance(p, sponsor, "After validation")

	err = p.PostOp(
		entryPointAddress, types.PostOpModeOpSucceeded, context, big.NewInt(73500), big.NewInt(2))
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	logBalance(p, sponsor, "After settlement")

	records, err := p.Settlements()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	for i, record := range records {
		log.Info().
			Int("index", i).
			Str("sponsor", record.Sponsor.Hex()).
			Str("requester", record.Requester.Hex()).
			Str("actualCost", record.ActualCost.String()).
			Msg("Settlement record")
	}

	balance, err := p.SponsorBalance(sponsor)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	if err = p.Withdraw(sponsor, sponsor, balance); err != nil {
		log.Fatal().Err(err).Send()
	}
	logBalance(p, sponsor, "After withdrawal")
}

func loadOrGenerateKey() (*ecdsa.PrivateKey, error) {
	if *sponsorKeystore != "" {
		return utils.GetPrivateKeyFromKeystore(*sponsorKeystore, "")
	}
	return crypto.GenerateKey()
}

func logBalance(p *paymaster.Paymaster, sponsor common.Address, msg string) {
	balance, err := p.SponsorBalance(sponsor)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	pooled, err := p.CurrentDeposit()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	log.Info().
		Str("sponsorBalance", balance.String()).
		Str("pooledDeposit", pooled.String()).
		Msg(msg)
}
