package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"supply_manager/internal/models"
	"supply_manager/internal/policy"
	"supply_manager/internal/redis"
	"supply_manager/internal/repository"
	"supply_manager/internal/testutil"
	"supply_manager/pkg/notify"

	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.deletes = append(c.deletes, key)
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Send(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, len(n.events))
	for i, e := range n.events {
		types[i] = e.Type
	}
	return types
}

type env struct {
	db       *gorm.DB
	repos    *repository.Repositories
	fx       *testutil.Fixtures
	cache    *memoryCache
	notifier *recordingNotifier
	stats    StatsService
	orders   *orderService
	delivery *deliveryService
	catalog  CatalogService
}

func newEnv(t *testing.T) *env {
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	cache := newMemoryCache()
	notifier := &recordingNotifier{}
	events := NewEvents(notifier)
	events.now = func() time.Time { return fixedNow }
	stats := NewStatsService(repos, cache, time.Minute)

	orders := NewOrderService(repos, stats, events).(*orderService)
	orders.now = func() time.Time { return fixedNow }
	deliveries := NewDeliveryService(repos, stats, events).(*deliveryService)
	deliveries.now = func() time.Time { return fixedNow }

	return &env{
		db:       db,
		repos:    repos,
		fx:       testutil.NewFixtures(t, db),
		cache:    cache,
		notifier: notifier,
		stats:    stats,
		orders:   orders,
		delivery: deliveries,
		catalog:  NewCatalogService(repos),
	}
}

func principal(user *models.User) policy.Principal {
	return policy.Principal{UserID: user.ID, Role: user.Role}
}

var adminPrincipal = policy.Principal{UserID: 999, Role: models.RoleAdmin}
