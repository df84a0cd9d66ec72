package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"supply_manager/internal/apperr"
	"supply_manager/internal/models"
	"supply_manager/internal/policy"
	"supply_manager/internal/redis"
	"supply_manager/internal/repository"

	"go.uber.org/zap"
)

// StatsCache is the subset of the Redis client the stats service needs.
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, interface{}) error { return redis.ErrCacheMiss }
func (noopCache) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }
func (noopCache) Delete(context.Context, ...string) error { return nil }

// NoopCache disables stats caching.
func NoopCache() StatsCache {
	return noopCache{}
}

type SupplierStats struct {
	TotalOrders     int64        `json:"totalOrders"`
	PendingOrders   int64        `json:"pendingOrders"`
	CompletedOrders int64        `json:"completedOrders"`
	TotalRevenue    models.Money `json:"totalRevenue"`
}

type DelivererStats struct {
	TotalDeliveries     int64 `json:"totalDeliveries"`
	PendingDeliveries   int64 `json:"pendingDeliveries"`
	CompletedDeliveries int64 `json:"completedDeliveries"`
	InTransitDeliveries int64 `json:"inTransitDeliveries"`
}

type StatsService interface {
	SupplierStats(ctx context.Context, p policy.Principal) (*SupplierStats, error)
	DelivererStats(ctx context.Context, p policy.Principal) (*DelivererStats, error)
	InvalidateSupplier(ctx context.Context, supplierID uint)
	InvalidateDeliverer(ctx context.Context, delivererID uint)
}

type statsService struct {
	repos *repository.Repositories
	cache StatsCache
	ttl   time.Duration

	// generations counts invalidations per key. A computation that saw an
	// older generation is not written back.
	mu          sync.Mutex
	generations map[string]uint64
}

func NewStatsService(repos *repository.Repositories, cache StatsCache, ttl time.Duration) StatsService {
	if cache == nil {
		cache = NoopCache()
	}
	return &statsService{repos: repos, cache: cache, ttl: ttl, generations: map[string]uint64{}}
}

func (s *statsService) SupplierStats(ctx context.Context, p policy.Principal) (*SupplierStats, error) {
	if err := policy.CanViewSupplierStats(p); err != nil {
		return nil, err
	}

	key := redis.SupplierStatsKey(p.UserID)
	gen := s.generation(key)
	var stats SupplierStats
	if s.fromCache(ctx, key, &stats) {
		return &stats, nil
	}

	var err error
	orders := s.repos.Orders
	if stats.TotalOrders, err = orders.CountBySupplier(ctx, p.UserID); err != nil {
		return nil, apperr.Internal(err)
	}
	if stats.PendingOrders, err = orders.CountBySupplier(ctx, p.UserID, models.OrderPending); err != nil {
		return nil, apperr.Internal(err)
	}
	if stats.CompletedOrders, err = orders.CountBySupplier(ctx, p.UserID, models.OrderDelivered); err != nil {
		return nil, apperr.Internal(err)
	}
	if stats.TotalRevenue, err = orders.SumTotalBySupplier(ctx, p.UserID, models.OrderDelivered); err != nil {
		return nil, apperr.Internal(err)
	}

	s.toCache(ctx, key, gen, &stats)
	return &stats, nil
}

// DelivererStats is open to any authenticated user and counts the deliveries assigned to them.
func (s *statsService) DelivererStats(ctx context.Context, p policy.Principal) (*DelivererStats, error) {
	key := redis.DelivererStatsKey(p.UserID)
	gen := s.generation(key)
	var stats DelivererStats
	if s.fromCache(ctx, key, &stats) {
		return &stats, nil
	}

	var err error
	deliveries := s.repos.Deliveries
	if stats.TotalDeliveries, err = deliveries.CountByDeliverer(ctx, p.UserID); err != nil {
		return nil, apperr.Internal(err)
	}
	if stats.PendingDeliveries, err = deliveries.CountByDeliverer(ctx, p.UserID, models.DeliveryPending, models.DeliveryAssigned); err != nil {
		return nil, apperr.Internal(err)
	}
	if stats.CompletedDeliveries, err = deliveries.CountByDeliverer(ctx, p.UserID, models.DeliveryDelivered); err != nil {
		return nil, apperr.Internal(err)
	}
	if stats.InTransitDeliveries, err = deliveries.CountByDeliverer(ctx, p.UserID, models.DeliveryPickedUp, models.DeliveryInTransit); err != nil {
		return nil, apperr.Internal(err)
	}

	s.toCache(ctx, key, gen, &stats)
	return &stats, nil
}

func (s *statsService) InvalidateSupplier(ctx context.Context, supplierID uint) {
	s.invalidate(ctx, redis.SupplierStatsKey(supplierID))
}

func (s *statsService) InvalidateDeliverer(ctx context.Context, delivererID uint) {
	s.invalidate(ctx, redis.DelivererStatsKey(delivererID))
}

func (s *statsService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		zap.L().Warn("Stats cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *statsService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

// toCache stores value unless key was invalidated after gen was read.
func (s *statsService) toCache(ctx context.Context, key string, gen uint64, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[key] != gen {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		zap.L().Warn("Stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *statsService) invalidate(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[key]++
	if err := s.cache.Delete(ctx, key); err != nil {
		zap.L().Warn("Stats cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
