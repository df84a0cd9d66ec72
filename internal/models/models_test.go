package models

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyJSON(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte(`10.5`), &m))
	assert.Equal(t, Money(1050), m)

	require.NoError(t, json.Unmarshal([]byte(`"0.99"`), &m))
	assert.Equal(t, Money(99), m)

	assert.Error(t, json.Unmarshal([]byte(`1.005`), &m))
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))

	out, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{Price: 2200})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":22.00}`, string(out))
}

func TestMoneyPercentRounding(t *testing.T) {
	assert.Equal(t, Money(200), Money(2000).Percent(TaxRate))
	// 0.15 * 10% = 0.015 → 0.02
	assert.Equal(t, Money(2), Money(15).Percent(TaxRate))
	// 0.14 * 10% = 0.014 → 0.01
	assert.Equal(t, Money(1), Money(14).Percent(TaxRate))
	assert.Equal(t, Money(0), Money(0).Percent(TaxRate))
}

func TestComputeTotalsScenario(t *testing.T) {
	items := []OrderItem{{ProductID: 1, Quantity: 2, UnitPrice: 1000}}

	totals := ComputeTotals(items)

	assert.Equal(t, Money(2000), items[0].Subtotal)
	assert.Equal(t, Money(2000), totals.Subtotal)
	assert.Equal(t, Money(200), totals.Taxes)
	assert.Equal(t, Money(2200), totals.Total)
}

func TestComputeTotalsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(6)
		items := make([]OrderItem, n)
		for j := range items {
			items[j] = OrderItem{Quantity: 1 + rng.Intn(20), UnitPrice: Money(rng.Int63n(100000))}
		}

		totals := ComputeTotals(items)

		var sum Money
		for _, item := range items {
			assert.Equal(t, item.UnitPrice.Times(item.Quantity), item.Subtotal)
			sum += item.Subtotal
		}
		assert.Equal(t, sum, totals.Subtotal)
		assert.Equal(t, totals.Subtotal.Percent(TaxRate), totals.Taxes)
		assert.Equal(t, totals.Subtotal+totals.Taxes, totals.Total)
	}
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderConfirmed))
	assert.True(t, OrderConfirmed.CanTransitionTo(OrderPreparing))
	assert.True(t, OrderPreparing.CanTransitionTo(OrderShipped))
	assert.True(t, OrderShipped.CanTransitionTo(OrderDelivered))

	for _, s := range []OrderStatus{OrderPending, OrderConfirmed, OrderPreparing, OrderShipped} {
		assert.True(t, s.CanTransitionTo(OrderCancelled), s)
		assert.False(t, s.Terminal(), s)
	}

	assert.False(t, OrderConfirmed.CanTransitionTo(OrderPending))
	assert.False(t, OrderPending.CanTransitionTo(OrderShipped))
	assert.False(t, OrderPending.CanTransitionTo(OrderPending))
	assert.False(t, OrderDelivered.CanTransitionTo(OrderCancelled))
	assert.False(t, OrderCancelled.CanTransitionTo(OrderPending))
	assert.False(t, OrderStatus("lost").Valid())
}

func TestOrderApplyShipped(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := &Order{Status: OrderPreparing}

	o.ApplyStatus(OrderShipped, now)

	require.NotNil(t, o.ExpectedDeliveryDate)
	assert.Equal(t, now.Add(7*24*time.Hour), *o.ExpectedDeliveryDate)
}

func TestDeliveryTransitions(t *testing.T) {
	path := []DeliveryStatus{DeliveryPending, DeliveryAssigned, DeliveryPickedUp, DeliveryInTransit, DeliveryDelivered}
	for i := 0; i+1 < len(path); i++ {
		assert.True(t, path[i].CanTransitionTo(path[i+1]), path[i])
		assert.True(t, path[i].CanTransitionTo(DeliveryFailed), path[i])
	}
	assert.False(t, DeliveryDelivered.CanTransitionTo(DeliveryFailed))
	assert.False(t, DeliveryFailed.CanTransitionTo(DeliveryPending))
	assert.False(t, DeliveryInTransit.CanTransitionTo(DeliveryPickedUp))
}

func TestDeliveryApplyStatusStamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := &Delivery{Status: DeliveryAssigned}

	d.ApplyStatus(DeliveryPickedUp, now)
	require.NotNil(t, d.PickupDate)
	assert.Nil(t, d.ActualDeliveryDate)

	later := now.Add(time.Hour)
	d.ApplyStatus(DeliveryDelivered, later)
	require.NotNil(t, d.ActualDeliveryDate)
	assert.Equal(t, later, *d.ActualDeliveryDate)
	assert.Equal(t, now, *d.PickupDate)
}
