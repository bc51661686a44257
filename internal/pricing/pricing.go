// Package pricing implements the constant-product quote math for a two-asset
// pool. All functions are pure: they read their big.Int arguments, never
// mutate them, and return freshly allocated results.
package pricing

import (
	"errors"
	"math/big"
)

// fee: 0.3% => multiplier 997/1000, taken from the input side
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyReserves = errors.New("empty reserves")
)

// SwapOutput returns the output amount for swapping amountIn against
// reserves (reserveIn, reserveOut):
//
//	out = (amountIn * 997 * reserveOut) / (reserveIn * 1000 + amountIn * 997)
//
// All multiplications happen before the single final truncating division.
func SwapOutput(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrEmptyReserves
	}

	inWithFee := new(big.Int).Mul(amountIn, feeMul)
	denom := new(big.Int).Mul(reserveIn, feeDen)
	denom.Add(denom, inWithFee)
	out := new(big.Int).Mul(inWithFee, reserveOut)
	return out.Div(out, denom), nil
}

// InitialShares returns the share supply minted by the very first deposit:
// floor(sqrt(amountA * amountB)). Both amounts must be positive so the pool
// is never seeded with zero effective liquidity.
func InitialShares(amountA, amountB *big.Int) (*big.Int, error) {
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	return Isqrt(new(big.Int).Mul(amountA, amountB)), nil
}

// ProportionalShares returns the shares minted by a follow-up deposit of
// amountA: floor(amountA * totalShares / reserveA). The caller is responsible
// for having checked that the B side matches the pool ratio.
func ProportionalShares(amountA, reserveA, totalShares *big.Int) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveA == nil || reserveA.Sign() <= 0 {
		return nil, ErrEmptyReserves
	}
	out := new(big.Int).Mul(amountA, totalShares)
	return out.Div(out, reserveA), nil
}

// RequiredB returns the exact B amount a follow-up deposit of amountA must
// provide to keep the pool ratio: floor(amountA * reserveB / reserveA).
func RequiredB(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if amountA == nil || amountA.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveA == nil || reserveA.Sign() <= 0 {
		return nil, ErrEmptyReserves
	}
	out := new(big.Int).Mul(amountA, reserveB)
	return out.Div(out, reserveA), nil
}

// WithdrawalAmounts returns the pro-rata redemption for burning shares:
// floor(shares * reserveX / totalShares) per asset. Rounding always floors;
// the residual stays in the pool for the remaining holders.
func WithdrawalAmounts(shares, reserveA, reserveB, totalShares *big.Int) (*big.Int, *big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if totalShares == nil || totalShares.Sign() <= 0 {
		return nil, nil, ErrEmptyReserves
	}
	amountA := new(big.Int).Mul(shares, reserveA)
	amountA.Div(amountA, totalShares)
	amountB := new(big.Int).Mul(shares, reserveB)
	amountB.Div(amountB, totalShares)
	return amountA, amountB, nil
}

// Isqrt returns floor(sqrt(y)) for y >= 0 using the Newton iteration from
// Uniswap V2's Math.sol: start at y/2+1 and converge downward until the
// iterate stops decreasing. Negative input returns 0.
func Isqrt(y *big.Int) *big.Int {
	if y == nil || y.Sign() <= 0 {
		return new(big.Int)
	}
	if y.Cmp(big.NewInt(3)) <= 0 {
		return big.NewInt(1)
	}

	two := big.NewInt(2)
	z := new(big.Int).Set(y)
	x := new(big.Int).Div(y, two)
	x.Add(x, big.NewInt(1))
	for x.Cmp(z) < 0 {
		z.Set(x)
		next := new(big.Int).Div(y, x)
		next.Add(next, x)
		next.Div(next, two)
		x = next
	}
	return z
}
