package entrypoint

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

// Subset of the entry point ABI the paymaster needs: pooled deposit moves and
// stake management.
const entryPointABI = `[
	{"type":"function","name":"depositTo","stateMutability":"payable","inputs":[{"name":"account","type":"address"}],"outputs":[]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"withdrawTo","stateMutability":"nonpayable","inputs":[{"name":"withdrawAddress","type":"address"},{"name":"withdrawAmount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"addStake","stateMutability":"payable","inputs":[{"name":"unstakeDelaySec","type":"uint32"}],"outputs":[]},
	{"type":"function","name":"unlockStake","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"withdrawStake","stateMutability":"nonpayable","inputs":[{"name":"withdrawAddress","type":"address"}],"outputs":[]}
]`

var errTransactionReverted = errors.New("entry point transaction reverted")

// Client drives a deployed entry point contract. Value-carrying calls
// (depositTo, addStake) send the amount as transaction value.
type Client struct {
	address  common.Address
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	conn     *ethclient.Client
}

func NewClient(conn *ethclient.Client, address common.Address, auth *bind.TransactOpts) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(entryPointABI))
	if err != nil {
		return nil, err
	}
	return &Client{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, conn, conn, conn),
		auth:     auth,
		conn:     conn,
	}, nil
}

func (c *Client) DepositTo(account common.Address, amount *big.Int) error {
	opts := *c.auth
	opts.Value = amount
	tx, err := c.contract.Transact(&opts, "depositTo", account)
	if err != nil {
		return err
	}
	return c.waitMined(tx)
}

func (c *Client) BalanceOf(account common.Address) (*big.Int, error) {
	out := new(big.Int)
	err := c.contract.Call(&bind.CallOpts{}, &out, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WithdrawTo(target common.Address, amount *big.Int) error {
	tx, err := c.contract.Transact(c.auth, "withdrawTo", target, amount)
	if err != nil {
		return err
	}
	return c.waitMined(tx)
}

func (c *Client) AddStake(amount *big.Int, unstakeDelaySec uint32) error {
	opts := *c.auth
	opts.Value = amount
	tx, err := c.contract.Transact(&opts, "addStake", unstakeDelaySec)
	if err != nil {
		return err
	}
	return c.waitMined(tx)
}

func (c *Client) UnlockStake() error {
	tx, err := c.contract.Transact(c.auth, "unlockStake")
	if err != nil {
		return err
	}
	return c.waitMined(tx)
}

func (c *Client) WithdrawStake(target common.Address) error {
	tx, err := c.contract.Transact(c.auth, "withdrawStake", target)
	if err != nil {
		return err
	}
	return c.waitMined(tx)
}

func (c *Client) waitMined(tx *ethtypes.Transaction) error {
	receipt, err := bind.WaitMined(context.Background(), c.conn, tx)
	if err != nil {
		log.Err(err).Str("txHash", tx.Hash().Hex()).Msg("Failed to wait for entry point transaction")
		return err
	}
	if receipt.Status != 1 {
		log.Error().Str("txHash", tx.Hash().Hex()).Msg("Entry point transaction reverted")
		return errTransactionReverted
	}
	return nil
}
