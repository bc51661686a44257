package model

// Event kinds emitted by a pool.
const (
	EventLiquidityAdded   = "liquidity_added"
	EventLiquidityRemoved = "liquidity_removed"
	EventSwap             = "swap"
)

// Event is a pool domain event enriched with metadata.
type Event struct {
	Seq       uint64      `json:"seq"`
	Pair      string      `json:"pair"`
	Kind      string      `json:"kind"`
	Timestamp string      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
}

// LiquidityAddedData is the payload of a liquidity_added event.
// Amounts are decimal strings so arbitrary-precision values survive JSON.
type LiquidityAddedData struct {
	Provider     string `json:"provider"`
	AmountA      string `json:"amount_a"`
	AmountB      string `json:"amount_b"`
	MintedShares string `json:"minted_shares"`
}

// LiquidityRemovedData is the payload of a liquidity_removed event.
type LiquidityRemovedData struct {
	Provider     string `json:"provider"`
	AmountA      string `json:"amount_a"`
	AmountB      string `json:"amount_b"`
	BurnedShares string `json:"burned_shares"`
}

// SwapData is the payload of a swap event.
type SwapData struct {
	Trader    string `json:"trader"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}
