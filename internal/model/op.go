package model

// Operation kinds accepted by the replay runner.
const (
	OpFund      = "fund"
	OpDeposit   = "deposit"
	OpWithdraw  = "withdraw"
	OpSwapAForB = "swap_a_for_b"
	OpSwapBForA = "swap_b_for_a"
)

// OpRecord is one operation line of a replay input file. Amount fields are
// decimal strings; which fields are required depends on Kind:
//
//	fund          Account, Asset, Amount
//	deposit       Account, AmountA, AmountB
//	withdraw      Account, Shares
//	swap_a_for_b  Account, AmountIn
//	swap_b_for_a  Account, AmountIn
type OpRecord struct {
	Seq      uint64 `json:"seq"`
	Kind     string `json:"kind"`
	Pair     string `json:"pair"`
	Account  string `json:"account"`
	Asset    string `json:"asset,omitempty"`
	Amount   string `json:"amount,omitempty"`
	AmountA  string `json:"amount_a,omitempty"`
	AmountB  string `json:"amount_b,omitempty"`
	Shares   string `json:"shares,omitempty"`
	AmountIn string `json:"amount_in,omitempty"`
}

// OpError records a failed operation during replay.
type OpError struct {
	Seq     uint64 `json:"seq"`
	Kind    string `json:"kind"`
	Pair    string `json:"pair"`
	Account string `json:"account"`
	Error   string `json:"error"`
}
