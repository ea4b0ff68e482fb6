// internal/services/blockchain_service.go
package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/mintcart/mintcart-backend/internal/config"
)

// productFactoryABI covers the factory's create method and its creation event.
const productFactoryABI = `[
	{"type":"function","name":"create","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"tokenURI","type":"string"},
		{"name":"slug","type":"string"},
		{"name":"owner","type":"address"},
		{"name":"price","type":"uint256"},
		{"name":"supply","type":"uint256"}],
	 "outputs":[{"name":"product","type":"address"}]},
	{"type":"event","name":"ProductCreated","anonymous":false,
	 "inputs":[
		{"name":"product","type":"address","indexed":true},
		{"name":"owner","type":"address","indexed":true},
		{"name":"slug","type":"string","indexed":false}]}
]`

// Signer authorizes transactions for a chain.
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// FactoryProvider resolves the product factory deployed on a chain.
type FactoryProvider interface {
	SupportsChain(chainID int64) bool
	Factory(ctx context.Context, chainID int64, signer Signer) (ProductFactory, error)
}

type ProductFactory interface {
	Address() string
	Create(ctx context.Context, tokenURI, slug, owner string, price *big.Int, supply uint64) (PendingTransaction, error)
	// Transaction returns a handle for an already submitted transaction.
	Transaction(hash string) PendingTransaction
}

type PendingTransaction interface {
	Hash() string
	// Wait blocks until the transaction is mined with enough confirmations.
	// A failed receipt yields ErrTxReverted.
	Wait(ctx context.Context) (*ConfirmedReceipt, error)
}

type ConfirmedReceipt struct {
	TxHash          string
	BlockNumber     uint64
	ContractAddress string
}

type receiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type chainBackend interface {
	bind.ContractBackend
	receiptReader
	ChainID(ctx context.Context) (*big.Int, error)
}

type BlockchainService struct {
	config     *config.Config
	factoryABI abi.ABI
	dial       func(ctx context.Context, rawurl string) (chainBackend, error)

	mu      sync.Mutex
	clients map[int64]chainBackend
}

func NewBlockchainService(config *config.Config) (*BlockchainService, error) {
	parsed, err := abi.JSON(strings.NewReader(productFactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}

	return &BlockchainService{
		config:     config,
		factoryABI: parsed,
		dial: func(ctx context.Context, rawurl string) (chainBackend, error) {
			client, err := ethclient.DialContext(ctx, rawurl)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		clients: make(map[int64]chainBackend),
	}, nil
}

// SupportsChain reports whether a factory is configured for chainID.
func (s *BlockchainService) SupportsChain(chainID int64) bool {
	_, ok := s.config.Blockchain.FactoryAddresses[strconv.FormatInt(chainID, 10)]
	return ok
}

func (s *BlockchainService) Factory(ctx context.Context, chainID int64, signer Signer) (ProductFactory, error) {
	key := strconv.FormatInt(chainID, 10)
	factoryHex, ok := s.config.Blockchain.FactoryAddresses[key]
	if !ok {
		return nil, fmt.Errorf("%w: no factory configured for chain %d", ErrUnsupportedChain, chainID)
	}
	if !common.IsHexAddress(factoryHex) {
		return nil, fmt.Errorf("invalid factory address %q for chain %d", factoryHex, chainID)
	}

	client, err := s.client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	address := common.HexToAddress(factoryHex)
	confirmations := uint64(s.config.Blockchain.Confirmations)
	if confirmations == 0 {
		confirmations = 1
	}

	return &ethProductFactory{
		address:       address,
		chainID:       big.NewInt(chainID),
		abi:           s.factoryABI,
		contract:      bind.NewBoundContract(address, s.factoryABI, client, client, client),
		receipts:      client,
		signer:        signer,
		confirmations: confirmations,
		pollInterval:  s.config.Blockchain.PollInterval,
	}, nil
}

func (s *BlockchainService) client(ctx context.Context, chainID int64) (chainBackend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.clients[chainID]; ok {
		return client, nil
	}

	rpcURL, ok := s.config.Blockchain.RPCURLs[strconv.FormatInt(chainID, 10)]
	if !ok {
		return nil, fmt.Errorf("%w: no RPC endpoint for chain %d", ErrUnsupportedChain, chainID)
	}

	client, err := s.dial(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain %d: %w", chainID, err)
	}

	remote, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if remote.Int64() != chainID {
		return nil, fmt.Errorf("RPC endpoint for chain %d serves chain %s", chainID, remote)
	}

	s.clients[chainID] = client
	return client, nil
}

type ethProductFactory struct {
	address       common.Address
	chainID       *big.Int
	abi           abi.ABI
	contract      *bind.BoundContract
	receipts      receiptReader
	signer        Signer
	confirmations uint64
	pollInterval  time.Duration
}

func (f *ethProductFactory) Address() string {
	return f.address.Hex()
}

func (f *ethProductFactory) Create(ctx context.Context, tokenURI, slug, owner string, price *big.Int, supply uint64) (PendingTransaction, error) {
	if f.signer == nil {
		return nil, fmt.Errorf("%w: no signer available", ErrSignerDeclined)
	}
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}

	opts, err := f.signer.TransactOpts(ctx, f.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	tx, err := f.contract.Transact(opts, "create", tokenURI, slug, common.HexToAddress(owner), price, new(big.Int).SetUint64(supply))
	if err != nil {
		return nil, fmt.Errorf("failed to submit create transaction: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"chain_id": f.chainID,
		"factory":  f.address.Hex(),
		"tx_hash":  tx.Hash().Hex(),
		"nonce":    tx.Nonce(),
	}).Info("Create transaction submitted")

	return f.Transaction(tx.Hash().Hex()), nil
}

func (f *ethProductFactory) Transaction(hash string) PendingTransaction {
	return &pendingTx{
		hash:          common.HexToHash(hash),
		factory:       f.address,
		createdEvent:  f.abi.Events["ProductCreated"].ID,
		receipts:      f.receipts,
		confirmations: f.confirmations,
		pollInterval:  f.pollInterval,
	}
}

type pendingTx struct {
	hash          common.Hash
	factory       common.Address
	createdEvent  common.Hash
	receipts      receiptReader
	confirmations uint64
	pollInterval  time.Duration
}

func (p *pendingTx) Hash() string {
	return p.hash.Hex()
}

func (p *pendingTx) Wait(ctx context.Context) (*ConfirmedReceipt, error) {
	interval := p.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := p.receipts.TransactionReceipt(ctx, p.hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return nil, fmt.Errorf("%w: %s", ErrTxReverted, p.hash.Hex())
			}
			if p.deepEnough(ctx, receipt) {
				return p.confirmed(receipt), nil
			}
		case err != nil && !errors.Is(err, ethereum.NotFound):
			if ctx.Err() != nil {
				return nil, fmt.Errorf("waiting for %s: %w", p.hash.Hex(), ctx.Err())
			}
			logrus.WithError(err).WithField("tx_hash", p.hash.Hex()).Debug("Receipt lookup failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", p.hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// deepEnough reports whether the receipt's block has the required confirmations.
// The inclusion block itself counts as the first one.
func (p *pendingTx) deepEnough(ctx context.Context, receipt *types.Receipt) bool {
	if p.confirmations <= 1 {
		return true
	}
	if receipt.BlockNumber == nil {
		return false
	}
	head, err := p.receipts.BlockNumber(ctx)
	if err != nil {
		return false
	}
	mined := receipt.BlockNumber.Uint64()
	return head >= mined && head-mined+1 >= p.confirmations
}

// confirmed picks the product address from the factory's ProductCreated log.
func (p *pendingTx) confirmed(receipt *types.Receipt) *ConfirmedReceipt {
	result := &ConfirmedReceipt{TxHash: p.hash.Hex()}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}

	for _, log := range receipt.Logs {
		if log == nil || log.Address != p.factory || len(log.Topics) < 2 {
			continue
		}
		if log.Topics[0] == p.createdEvent {
			result.ContractAddress = common.BytesToAddress(log.Topics[1].Bytes()).Hex()
			break
		}
	}
	if result.ContractAddress == "" {
		result.ContractAddress = p.factory.Hex()
	}
	return result
}

// KeyedSigner signs with a locally held private key, the platform relayer.
type KeyedSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewKeyedSigner(hexKey string) (*KeyedSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &KeyedSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (s *KeyedSigner) Address() common.Address {
	return s.address
}

func (s *KeyedSigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerDeclined, err)
	}

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		signed, err := sign(from, tx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignerDeclined, err)
		}
		return signed, nil
	}
	opts.Context = ctx
	return opts, nil
}
