// Package stats aggregates pool events into per-pair totals.
package stats

import (
	"fmt"
	"math/big"

	"liquidityCore/internal/model"
)

// Retained swap fee, as parts of the input amount.
var (
	feeNum = big.NewInt(3)
	feeDen = big.NewInt(1000)
)

// Summary holds aggregate totals for one pair.
type Summary struct {
	Pair          string
	DepositCount  uint64
	WithdrawCount uint64
	SwapCount     uint64
	VolumeA       *big.Int
	VolumeB       *big.Int
	FeesA         *big.Int
	FeesB         *big.Int
}

func NewSummary(pair string) *Summary {
	return &Summary{
		Pair:    pair,
		VolumeA: big.NewInt(0),
		VolumeB: big.NewInt(0),
		FeesA:   big.NewInt(0),
		FeesB:   big.NewInt(0),
	}
}

// AddEvent folds one pool event into the summary. Swap volume and fees are
// attributed to the input asset side.
func (s *Summary) AddEvent(assetA string, ev model.Event) error {
	switch payload := ev.Decoded.(type) {
	case model.LiquidityAddedData:
		s.DepositCount++
	case model.LiquidityRemovedData:
		s.WithdrawCount++
	case model.SwapData:
		s.SwapCount++
		amountIn, err := parseBigInt(payload.AmountIn)
		if err != nil {
			return fmt.Errorf("swap amount_in: %w", err)
		}
		fee := new(big.Int).Mul(amountIn, feeNum)
		fee.Div(fee, feeDen)
		if payload.AssetIn == assetA {
			s.VolumeA.Add(s.VolumeA, amountIn)
			s.FeesA.Add(s.FeesA, fee)
		} else {
			s.VolumeB.Add(s.VolumeB, amountIn)
			s.FeesB.Add(s.FeesB, fee)
		}
	default:
		return fmt.Errorf("unknown event payload %T", ev.Decoded)
	}
	return nil
}

// Collector accumulates summaries across pairs.
type Collector struct {
	assetA    map[string]string
	summaries map[string]*Summary
}

func NewCollector() *Collector {
	return &Collector{
		assetA:    make(map[string]string),
		summaries: make(map[string]*Summary),
	}
}

// SetPairAssets registers which asset is the A side of a pair, so swap
// volume lands on the right bucket.
func (c *Collector) SetPairAssets(pair, assetA string) {
	c.assetA[pair] = assetA
}

// AddEvent routes an event to its pair summary, creating it on first use.
func (c *Collector) AddEvent(ev model.Event) error {
	summary, ok := c.summaries[ev.Pair]
	if !ok {
		summary = NewSummary(ev.Pair)
		c.summaries[ev.Pair] = summary
	}
	return summary.AddEvent(c.assetA[ev.Pair], ev)
}

// Summaries returns the per-pair totals accumulated so far.
func (c *Collector) Summaries() map[string]*Summary {
	return c.summaries
}

func parseBigInt(input string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer: %s", input)
	}
	return value, nil
}
