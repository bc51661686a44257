package pool

import (
	"errors"

	"liquidityCore/internal/pricing"
)

// The quote errors are shared with the pricing package so errors.Is works
// across both layers.
var (
	ErrInvalidAmount      = pricing.ErrInvalidAmount
	ErrEmptyReserves      = pricing.ErrEmptyReserves
	ErrRatioMismatch      = errors.New("deposit does not match pool ratio")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrReserveUnderflow   = errors.New("output exceeds reserve")
)
