// Package transfer provides an in-memory asset-transfer collaborator for
// the pool: accounts hold per-asset balances, and the pool's custody side
// is tracked in a vault bucket per asset.
package transfer

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAccount    = errors.New("invalid account address")
	ErrInvalidTransfer   = errors.New("transfer amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Ledger is a double-entry in-memory balance book. Account keys are
// checksummed hex addresses; unknown accounts read as zero balances.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[common.Address]map[string]*big.Int
	vault    map[string]*big.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[common.Address]map[string]*big.Int),
		vault:    make(map[string]*big.Int),
	}
}

// Credit mints amount of asset onto an account. Used to seed balances
// before a replay; not reachable from pool operations.
func (l *Ledger) Credit(account string, asset string, amount *big.Int) error {
	addr, err := parseAccount(account)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balance(addr, asset)
	bal.Add(bal, amount)
	return nil
}

// TransferIn moves amount of asset from an account into the vault.
func (l *Ledger) TransferIn(asset string, from string, amount *big.Int) error {
	addr, err := parseAccount(from)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.balance(addr, asset)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%s has %s %s, needs %s: %w", from, bal, asset, amount, ErrInsufficientFunds)
	}
	bal.Sub(bal, amount)
	vault := l.vaultBalance(asset)
	vault.Add(vault, amount)
	return nil
}

// TransferOut moves amount of asset from the vault to an account.
func (l *Ledger) TransferOut(asset string, to string, amount *big.Int) error {
	addr, err := parseAccount(to)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	vault := l.vaultBalance(asset)
	if vault.Cmp(amount) < 0 {
		return fmt.Errorf("vault has %s %s, needs %s: %w", vault, asset, amount, ErrInsufficientFunds)
	}
	vault.Sub(vault, amount)
	bal := l.balance(addr, asset)
	bal.Add(bal, amount)
	return nil
}

// BalanceOf returns an account's balance of asset; unknown accounts read 0.
func (l *Ledger) BalanceOf(account string, asset string) *big.Int {
	addr, err := parseAccount(account)
	if err != nil {
		return new(big.Int)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if balances, ok := l.accounts[addr]; ok {
		if bal, ok := balances[asset]; ok {
			return new(big.Int).Set(bal)
		}
	}
	return new(big.Int)
}

// VaultBalance returns the pool custody balance of asset.
func (l *Ledger) VaultBalance(asset string) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.vault[asset]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (l *Ledger) balance(addr common.Address, asset string) *big.Int {
	balances, ok := l.accounts[addr]
	if !ok {
		balances = make(map[string]*big.Int)
		l.accounts[addr] = balances
	}
	bal, ok := balances[asset]
	if !ok {
		bal = new(big.Int)
		balances[asset] = bal
	}
	return bal
}

func (l *Ledger) vaultBalance(asset string) *big.Int {
	bal, ok := l.vault[asset]
	if !ok {
		bal = new(big.Int)
		l.vault[asset] = bal
	}
	return bal
}

func parseAccount(account string) (common.Address, error) {
	if !common.IsHexAddress(account) {
		return common.Address{}, fmt.Errorf("%q: %w", account, ErrInvalidAccount)
	}
	return common.HexToAddress(account), nil
}
