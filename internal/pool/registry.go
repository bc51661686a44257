package pool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"liquidityCore/internal/model"
)

// Registry holds one Pool per asset pair. Pools for different pairs are
// independent and may operate concurrently.
type Registry struct {
	transfers TransferService
	events    EventSink
	logger    *zap.Logger

	mu    sync.RWMutex
	pools map[string]*Pool
}

// NewRegistry builds a Registry whose pools share the given collaborators.
func NewRegistry(transfers TransferService, events EventSink, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		transfers: transfers,
		events:    events,
		logger:    logger,
		pools:     make(map[string]*Pool),
	}
}

// GetOrCreate returns the pool for a "ASSETA/ASSETB" pair label, creating an
// empty one on first use.
func (r *Registry) GetOrCreate(pair string) (*Pool, error) {
	r.mu.RLock()
	p, ok := r.pools[pair]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	assetA, assetB, err := SplitPair(pair)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[pair]; ok {
		return p, nil
	}
	p = New(Config{Pair: pair, AssetA: assetA, AssetB: assetB}, r.transfers, r.events, r.logger)
	r.pools[pair] = p
	r.logger.Info("pool created", zap.String("pair", pair))
	return p, nil
}

// Get returns the pool for pair, or nil if none exists yet.
func (r *Registry) Get(pair string) *Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pools[pair]
}

// Snapshots returns the state of every pool, ordered by pair label.
func (r *Registry) Snapshots() []model.PoolSnapshot {
	r.mu.RLock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.RUnlock()

	snaps := make([]model.PoolSnapshot, 0, len(pools))
	for _, p := range pools {
		snaps = append(snaps, p.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Pair < snaps[j].Pair })
	return snaps
}

// SplitPair parses a "ASSETA/ASSETB" label into its asset symbols.
func SplitPair(pair string) (string, string, error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid pair %q: want ASSETA/ASSETB", pair)
	}
	assetA := strings.TrimSpace(parts[0])
	assetB := strings.TrimSpace(parts[1])
	if assetA == "" || assetB == "" || assetA == assetB {
		return "", "", fmt.Errorf("invalid pair %q: want two distinct assets", pair)
	}
	return assetA, assetB, nil
}
