package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newLedgerFixture(ps ...*models.Product) (*InventoryLedger, *fakeProductRepo, *fakeLogRepo) {
	products := newFakeProductRepo(ps...)
	logs := &fakeLogRepo{}
	return NewInventoryLedger(products, logs, zap.NewNop()), products, logs
}

func TestLedger_DecrementLogsChange(t *testing.T) {
	p := &models.Product{Name: "Mug", InStock: 10}
	ledger, products, logs := newLedgerFixture(p)
	orderID := primitive.NewObjectID()

	adjs := ledger.Decrement(context.Background(), []StockItem{{ProductRef: p.ID.Hex(), Title: "Mug", Quantity: 3}}, &orderID)

	require.Len(t, adjs, 1)
	assert.Equal(t, 10, adjs[0].PreviousStock)
	assert.Equal(t, 7, adjs[0].NewStock)
	assert.Equal(t, -3, adjs[0].Change)
	assert.False(t, adjs[0].Clamped())
	assert.Equal(t, 7, products.stock(p.ID, ""))

	entries := logs.byReason(models.ReasonOrderPlaced)
	require.Len(t, entries, 1)
	assert.Equal(t, -3, entries[0].Change)
	assert.Equal(t, orderID, *entries[0].Meta.OrderID)
}

func TestLedger_DecrementClampsAtZero(t *testing.T) {
	p := &models.Product{Name: "Mug", InStock: 2}
	ledger, products, logs := newLedgerFixture(p)

	adjs := ledger.Decrement(context.Background(), []StockItem{{ProductRef: p.ID.Hex(), Quantity: 5}}, nil)

	require.Len(t, adjs, 1)
	assert.True(t, adjs[0].Clamped())
	assert.Equal(t, -5, adjs[0].Requested)
	assert.Equal(t, -2, adjs[0].Change)
	assert.Equal(t, 0, products.stock(p.ID, ""))

	entries := logs.byReason(models.ReasonOrderPlaced)
	require.Len(t, entries, 1)
	assert.Equal(t, 0-2, entries[0].Change, "clamp logs newStock - previousStock")
	assert.Equal(t, 0, entries[0].NewStock)
}

func TestLedger_VariantCounter(t *testing.T) {
	p := &models.Product{Name: "Tee", InStock: 50, Variants: []models.Variant{{Name: "S", InStock: 4}, {Name: "M", InStock: 6}}}
	ledger, products, _ := newLedgerFixture(p)

	adjs := ledger.Decrement(context.Background(), []StockItem{{ProductRef: p.ID.Hex(), Quantity: 2, VariantName: "M"}}, nil)

	require.Len(t, adjs, 1)
	require.NoError(t, adjs[0].Err)
	assert.Equal(t, 4, products.stock(p.ID, "M"))
	assert.Equal(t, 4, products.stock(p.ID, "S"))
	assert.Equal(t, 50, products.stock(p.ID, ""))
}

func TestLedger_SkipsUnresolvedAndContinues(t *testing.T) {
	p := &models.Product{Name: "Tee", InStock: 5, Variants: []models.Variant{{Name: "S", InStock: 4}}}
	ledger, products, logs := newLedgerFixture(p)

	adjs := ledger.Increment(context.Background(), []StockItem{
		{ProductRef: "not-an-id", Title: "Ghost", Quantity: 1},
		{ProductRef: p.ID.Hex(), Quantity: 1, VariantName: "XXL"},
		{ProductRef: p.ID.Hex(), Quantity: 2},
	}, nil, models.ReasonOrderReturned)

	require.Len(t, adjs, 3)
	assert.True(t, adjs[0].Skipped)
	assert.ErrorIs(t, adjs[0].Err, ErrProductNotFound)
	assert.True(t, adjs[1].Skipped)
	assert.ErrorIs(t, adjs[1].Err, ErrVariantNotFound)
	assert.False(t, adjs[2].Skipped)
	assert.Equal(t, 7, products.stock(p.ID, ""))
	assert.Len(t, Failed(adjs), 2)
	assert.Len(t, logs.byReason(models.ReasonOrderReturned), 1)
}

func TestLedger_ResolvesByNameFallback(t *testing.T) {
	p := &models.Product{Name: "Candle", InStock: 3}
	ledger, products, _ := newLedgerFixture(p)

	adjs := ledger.Increment(context.Background(), []StockItem{{ProductRef: primitive.NewObjectID().Hex(), Title: "Candle", Quantity: 2}}, nil, models.ReasonOrderCancelled)

	require.NoError(t, adjs[0].Err)
	assert.Equal(t, 5, products.stock(p.ID, ""))
}

func TestLedger_LogFailureIsReported(t *testing.T) {
	p := &models.Product{Name: "Mug", InStock: 10}
	ledger, products, logs := newLedgerFixture(p)
	logs.err = errors.New("write concern")

	adjs := ledger.Decrement(context.Background(), []StockItem{{ProductRef: p.ID.Hex(), Quantity: 1}}, nil)

	require.Len(t, adjs, 1)
	assert.Error(t, adjs[0].Err)
	assert.False(t, adjs[0].Skipped)
	assert.Equal(t, 9, products.stock(p.ID, ""))
}

func TestLedger_ConcurrentDecrementsNeverGoNegative(t *testing.T) {
	p := &models.Product{Name: "Mug", InStock: 10}
	ledger, products, logs := newLedgerFixture(p)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Decrement(context.Background(), []StockItem{{ProductRef: p.ID.Hex(), Quantity: 1}}, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, products.stock(p.ID, ""))
	total := 0
	for _, e := range logs.byReason(models.ReasonOrderPlaced) {
		assert.GreaterOrEqual(t, e.NewStock, 0)
		total += e.Change
	}
	assert.Equal(t, -10, total, "logged changes add up to the real movement")
}

func TestLedger_AdjustSetsAbsoluteValue(t *testing.T) {
	p := &models.Product{Name: "Mug", InStock: 10}
	ledger, products, logs := newLedgerFixture(p)

	adj, err := ledger.Adjust(context.Background(), p.ID, "", 4, models.ReasonProductEdit)
	require.NoError(t, err)
	assert.Equal(t, -6, adj.Change)
	assert.Equal(t, 4, products.stock(p.ID, ""))
	require.Len(t, logs.byReason(models.ReasonProductEdit), 1)

	// unchanged value writes no entry
	_, err = ledger.Adjust(context.Background(), p.ID, "", 4, models.ReasonProductEdit)
	require.NoError(t, err)
	assert.Len(t, logs.byReason(models.ReasonProductEdit), 1)

	_, err = ledger.Adjust(context.Background(), p.ID, "", 4, "bogus")
	assert.Error(t, err)
	_, err = ledger.Adjust(context.Background(), primitive.NewObjectID(), "", 1, models.ReasonAdminAdjustment)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
