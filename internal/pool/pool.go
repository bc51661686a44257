// Package pool implements the reserve/share ledger and operation
// orchestration for one two-asset constant-product pool.
package pool

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"liquidityCore/internal/model"
	"liquidityCore/internal/pricing"
)

// TransferService moves asset value on the pool's behalf. The pool only
// decides amounts; custody is the collaborator's problem. A call either
// completes or returns an error before the pool proceeds.
type TransferService interface {
	TransferIn(asset string, from string, amount *big.Int) error
	TransferOut(asset string, to string, amount *big.Int) error
}

// EventSink receives the domain events a pool emits. Events are
// informational; a sink must not be required for correctness.
type EventSink interface {
	Record(ev model.Event)
}

// Config identifies the pool's asset pair.
type Config struct {
	Pair   string
	AssetA string
	AssetB string
}

// Pool holds the reserves and share ledger for one asset pair. All four
// mutating operations run under a single per-pool lock that spans the
// transfer-collaborator call, so no operation ever observes a half-updated
// ledger.
type Pool struct {
	cfg       Config
	transfers TransferService
	events    EventSink
	logger    *zap.Logger

	mu          sync.RWMutex
	reserveA    *big.Int
	reserveB    *big.Int
	totalShares *big.Int
	shareOf     map[string]*big.Int
	seq         uint64
}

// New creates an empty pool. A nil transfers collaborator means amounts are
// computed but no value moves (useful for dry runs); a nil sink drops events.
func New(cfg Config, transfers TransferService, events EventSink, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:         cfg,
		transfers:   transfers,
		events:      events,
		logger:      logger,
		reserveA:    new(big.Int),
		reserveB:    new(big.Int),
		totalShares: new(big.Int),
		shareOf:     make(map[string]*big.Int),
	}
}

// Deposit adds (amountA, amountB) of liquidity for provider and returns the
// minted shares. The first deposit seeds the pool and sets the price ratio;
// every later deposit must match the current ratio exactly.
func (p *Pool) Deposit(provider string, amountA, amountB *big.Int) (*big.Int, error) {
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return nil, fmt.Errorf("deposit amounts: %w", ErrInvalidAmount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var minted *big.Int
	if p.totalShares.Sign() == 0 {
		shares, err := pricing.InitialShares(amountA, amountB)
		if err != nil {
			return nil, err
		}
		minted = shares
	} else {
		requiredB, err := pricing.RequiredB(amountA, p.reserveA, p.reserveB)
		if err != nil {
			return nil, err
		}
		if requiredB.Cmp(amountB) != 0 {
			return nil, fmt.Errorf("need %s of %s for %s of %s: %w",
				requiredB, p.cfg.AssetB, amountA, p.cfg.AssetA, ErrRatioMismatch)
		}
		shares, err := pricing.ProportionalShares(amountA, p.reserveA, p.totalShares)
		if err != nil {
			return nil, err
		}
		if shares.Sign() == 0 {
			return nil, fmt.Errorf("deposit too small to mint shares: %w", ErrInvalidAmount)
		}
		minted = shares
	}

	if err := p.collectPair(provider, amountA, amountB); err != nil {
		return nil, err
	}

	p.reserveA.Add(p.reserveA, amountA)
	p.reserveB.Add(p.reserveB, amountB)
	p.totalShares.Add(p.totalShares, minted)
	p.creditShares(provider, minted)

	p.logger.Debug("liquidity added",
		zap.String("pair", p.cfg.Pair),
		zap.String("provider", provider),
		zap.String("amount_a", amountA.String()),
		zap.String("amount_b", amountB.String()),
		zap.String("minted", minted.String()),
	)
	p.emit(model.EventLiquidityAdded, model.LiquidityAddedData{
		Provider:     provider,
		AmountA:      amountA.String(),
		AmountB:      amountB.String(),
		MintedShares: minted.String(),
	})

	return new(big.Int).Set(minted), nil
}

// Withdraw burns shares of provider's liquidity and returns the redeemed
// (amountA, amountB). Redemption floors per asset; the dust stays in the
// pool for the remaining holders.
func (p *Pool) Withdraw(provider string, shares *big.Int) (*big.Int, *big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, fmt.Errorf("burned shares: %w", ErrInvalidAmount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	held, ok := p.shareOf[provider]
	if !ok || held.Cmp(shares) < 0 {
		return nil, nil, fmt.Errorf("provider %s holds %s, wants to burn %s: %w",
			provider, p.balanceOf(provider), shares, ErrInsufficientShares)
	}

	amountA, amountB, err := pricing.WithdrawalAmounts(shares, p.reserveA, p.reserveB, p.totalShares)
	if err != nil {
		return nil, nil, err
	}

	if err := p.payOutPair(provider, amountA, amountB); err != nil {
		return nil, nil, err
	}

	p.reserveA.Sub(p.reserveA, amountA)
	p.reserveB.Sub(p.reserveB, amountB)
	p.totalShares.Sub(p.totalShares, shares)
	held.Sub(held, shares)
	if held.Sign() == 0 {
		delete(p.shareOf, provider)
	}

	p.logger.Debug("liquidity removed",
		zap.String("pair", p.cfg.Pair),
		zap.String("provider", provider),
		zap.String("amount_a", amountA.String()),
		zap.String("amount_b", amountB.String()),
		zap.String("burned", shares.String()),
	)
	p.emit(model.EventLiquidityRemoved, model.LiquidityRemovedData{
		Provider:     provider,
		AmountA:      amountA.String(),
		AmountB:      amountB.String(),
		BurnedShares: shares.String(),
	})

	return amountA, amountB, nil
}

// SwapAForB swaps amountIn of asset A for asset B and returns the output.
func (p *Pool) SwapAForB(trader string, amountIn *big.Int) (*big.Int, error) {
	return p.swap(trader, amountIn, true)
}

// SwapBForA swaps amountIn of asset B for asset A and returns the output.
func (p *Pool) SwapBForA(trader string, amountIn *big.Int) (*big.Int, error) {
	return p.swap(trader, amountIn, false)
}

func (p *Pool) swap(trader string, amountIn *big.Int, inIsA bool) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("swap input: %w", ErrInvalidAmount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	reserveIn, reserveOut := p.reserveA, p.reserveB
	assetIn, assetOut := p.cfg.AssetA, p.cfg.AssetB
	if !inIsA {
		reserveIn, reserveOut = p.reserveB, p.reserveA
		assetIn, assetOut = p.cfg.AssetB, p.cfg.AssetA
	}

	amountOut, err := pricing.SwapOutput(amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if err := p.coverOutput(assetOut, amountOut, reserveOut); err != nil {
		return nil, err
	}

	if err := p.transferIn(assetIn, trader, amountIn); err != nil {
		return nil, err
	}
	if err := p.transferOut(assetOut, trader, amountOut); err != nil {
		// Hand the input back so the failed swap is invisible to the ledger.
		p.refundOut(assetIn, trader, amountIn)
		return nil, err
	}

	reserveIn.Add(reserveIn, amountIn)
	reserveOut.Sub(reserveOut, amountOut)

	p.logger.Debug("swap",
		zap.String("pair", p.cfg.Pair),
		zap.String("trader", trader),
		zap.String("asset_in", assetIn),
		zap.String("amount_in", amountIn.String()),
		zap.String("asset_out", assetOut),
		zap.String("amount_out", amountOut.String()),
	)
	p.emit(model.EventSwap, model.SwapData{
		Trader:    trader,
		AssetIn:   assetIn,
		AssetOut:  assetOut,
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
	})

	return amountOut, nil
}

// Reserves returns a copy of the current reserve pair.
func (p *Pool) Reserves() (*big.Int, *big.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.reserveA), new(big.Int).Set(p.reserveB)
}

// Price returns the integer-truncated spot price reserveB/reserveA, or 0
// while either reserve is empty. The truncation is deliberate; callers
// depend on the exact truncated value.
func (p *Pool) Price() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.reserveA.Sign() == 0 || p.reserveB.Sign() == 0 {
		return new(big.Int)
	}
	return new(big.Int).Div(p.reserveB, p.reserveA)
}

// SharesOf returns provider's share balance; absent providers read as 0.
func (p *Pool) SharesOf(provider string) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balanceOf(provider)
}

// TotalShares returns the outstanding share supply.
func (p *Pool) TotalShares() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.totalShares)
}

// Snapshot captures the ledger state for storage.
func (p *Pool) Snapshot() model.PoolSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return model.PoolSnapshot{
		Pair:        p.cfg.Pair,
		AssetA:      p.cfg.AssetA,
		AssetB:      p.cfg.AssetB,
		ReserveA:    p.reserveA.String(),
		ReserveB:    p.reserveB.String(),
		TotalShares: p.totalShares.String(),
		TakenAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// coverOutput is the ledger's own guard against paying out more than a
// reserve holds. It runs before any transfer or reserve mutation and does
// not trust the quote that produced amountOut.
func (p *Pool) coverOutput(assetOut string, amountOut, reserveOut *big.Int) error {
	if amountOut.Cmp(reserveOut) > 0 {
		return fmt.Errorf("quoted %s of %s against reserve %s: %w",
			amountOut, assetOut, reserveOut, ErrReserveUnderflow)
	}
	return nil
}

func (p *Pool) balanceOf(provider string) *big.Int {
	if held, ok := p.shareOf[provider]; ok {
		return new(big.Int).Set(held)
	}
	return new(big.Int)
}

func (p *Pool) creditShares(provider string, minted *big.Int) {
	if held, ok := p.shareOf[provider]; ok {
		held.Add(held, minted)
		return
	}
	p.shareOf[provider] = new(big.Int).Set(minted)
}

// collectPair pulls both deposit legs in. If the second leg fails the first
// is handed back, so a failed deposit moves no net value.
func (p *Pool) collectPair(provider string, amountA, amountB *big.Int) error {
	if err := p.transferIn(p.cfg.AssetA, provider, amountA); err != nil {
		return err
	}
	if err := p.transferIn(p.cfg.AssetB, provider, amountB); err != nil {
		p.refundOut(p.cfg.AssetA, provider, amountA)
		return err
	}
	return nil
}

// payOutPair pushes both withdrawal legs out, reversing the first on a
// second-leg failure. Zero legs are skipped.
func (p *Pool) payOutPair(provider string, amountA, amountB *big.Int) error {
	if err := p.transferOut(p.cfg.AssetA, provider, amountA); err != nil {
		return err
	}
	if err := p.transferOut(p.cfg.AssetB, provider, amountB); err != nil {
		p.refundIn(p.cfg.AssetA, provider, amountA)
		return err
	}
	return nil
}

func (p *Pool) transferIn(asset, from string, amount *big.Int) error {
	if p.transfers == nil || amount.Sign() == 0 {
		return nil
	}
	if err := p.transfers.TransferIn(asset, from, amount); err != nil {
		return fmt.Errorf("transfer in %s %s from %s: %w", amount, asset, from, err)
	}
	return nil
}

func (p *Pool) transferOut(asset, to string, amount *big.Int) error {
	if p.transfers == nil || amount.Sign() == 0 {
		return nil
	}
	if err := p.transfers.TransferOut(asset, to, amount); err != nil {
		return fmt.Errorf("transfer out %s %s to %s: %w", amount, asset, to, err)
	}
	return nil
}

func (p *Pool) refundOut(asset, to string, amount *big.Int) {
	if p.transfers == nil || amount.Sign() == 0 {
		return
	}
	if err := p.transfers.TransferOut(asset, to, amount); err != nil {
		p.logger.Error("refund failed",
			zap.String("pair", p.cfg.Pair),
			zap.String("asset", asset),
			zap.String("account", to),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
	}
}

func (p *Pool) refundIn(asset, from string, amount *big.Int) {
	if p.transfers == nil || amount.Sign() == 0 {
		return
	}
	if err := p.transfers.TransferIn(asset, from, amount); err != nil {
		p.logger.Error("refund failed",
			zap.String("pair", p.cfg.Pair),
			zap.String("asset", asset),
			zap.String("account", from),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
	}
}

func (p *Pool) emit(kind string, payload interface{}) {
	if p.events == nil {
		return
	}
	p.seq++
	p.events.Record(model.Event{
		Seq:       p.seq,
		Pair:      p.cfg.Pair,
		Kind:      kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Decoded:   payload,
	})
}
