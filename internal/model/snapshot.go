package model

// PoolSnapshot captures a pool's ledger state for storage.
type PoolSnapshot struct {
	Pair        string `json:"pair"`
	AssetA      string `json:"asset_a"`
	AssetB      string `json:"asset_b"`
	ReserveA    string `json:"reserve_a"`
	ReserveB    string `json:"reserve_b"`
	TotalShares string `json:"total_shares"`
	TakenAt     string `json:"taken_at"`
}
