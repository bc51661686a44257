package stats

import (
	"testing"

	"liquidityCore/internal/model"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.SetPairAssets("WETH/USDT", "WETH")

	events := []model.Event{
		{Pair: "WETH/USDT", Kind: model.EventLiquidityAdded, Decoded: model.LiquidityAddedData{
			Provider: "0x1111111111111111111111111111111111111111", AmountA: "100", AmountB: "200", MintedShares: "141",
		}},
		{Pair: "WETH/USDT", Kind: model.EventSwap, Decoded: model.SwapData{
			Trader: "0x2222222222222222222222222222222222222222", AssetIn: "WETH", AssetOut: "USDT", AmountIn: "1000", AmountOut: "18",
		}},
		{Pair: "WETH/USDT", Kind: model.EventSwap, Decoded: model.SwapData{
			Trader: "0x2222222222222222222222222222222222222222", AssetIn: "USDT", AssetOut: "WETH", AmountIn: "2000", AmountOut: "9",
		}},
		{Pair: "WETH/USDT", Kind: model.EventLiquidityRemoved, Decoded: model.LiquidityRemovedData{
			Provider: "0x1111111111111111111111111111111111111111", AmountA: "50", AmountB: "100", BurnedShares: "70",
		}},
	}

	for _, ev := range events {
		if err := c.AddEvent(ev); err != nil {
			t.Fatalf("add event: %v", err)
		}
	}

	summaries := c.Summaries()
	if len(summaries) != 1 {
		t.Fatalf("summaries %d, want 1", len(summaries))
	}
	s := summaries["WETH/USDT"]
	if s == nil {
		t.Fatalf("missing pair summary")
	}

	if s.DepositCount != 1 || s.WithdrawCount != 1 || s.SwapCount != 2 {
		t.Fatalf("counts %d/%d/%d, want 1/1/2", s.DepositCount, s.WithdrawCount, s.SwapCount)
	}
	if s.VolumeA.String() != "1000" || s.VolumeB.String() != "2000" {
		t.Fatalf("volumes %s/%s, want 1000/2000", s.VolumeA, s.VolumeB)
	}
	// 0.3% of the input side, floored.
	if s.FeesA.String() != "3" || s.FeesB.String() != "6" {
		t.Fatalf("fees %s/%s, want 3/6", s.FeesA, s.FeesB)
	}
}

func TestCollectorRejectsUnknownPayload(t *testing.T) {
	c := NewCollector()
	if err := c.AddEvent(model.Event{Pair: "WETH/USDT", Decoded: 42}); err == nil {
		t.Fatalf("expected error for unknown payload")
	}
}
