package services

import (
	"context"
	"sync"
	"testing"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type orderFixture struct {
	svc      *OrderService
	orders   *fakeOrderRepo
	sales    *fakeSaleRepo
	products *fakeProductRepo
	logs     *fakeLogRepo
	events   *fakePublisher
	product  *models.Product
	order    *models.Order
}

func newOrderFixture(t *testing.T, status string) *orderFixture {
	t.Helper()
	product := &models.Product{Name: "Lamp", InStock: 7}
	products := newFakeProductRepo(product)
	logs := &fakeLogRepo{}
	orders := newFakeOrderRepo()
	sales := newFakeSaleRepo()
	events := &fakePublisher{}
	ledger := NewInventoryLedger(products, logs, zap.NewNop())

	order := &models.Order{
		Products:      []models.OrderItem{{ProductID: product.ID.Hex(), Title: "Lamp", Price: 40, Quantity: 3}},
		Customer:      models.Customer{FullName: "Ana", Email: "ana@example.com"},
		PaymentMethod: models.PaymentMethodCOD,
		TotalAmount:   120,
		Status:        status,
	}
	require.NoError(t, orders.Create(context.Background(), order))

	return &orderFixture{
		svc:      NewOrderService(orders, sales, ledger, events, zap.NewNop()),
		orders:   orders,
		sales:    sales,
		products: products,
		logs:     logs,
		events:   events,
		product:  product,
		order:    order,
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(t, models.StatusPending)

	_, err := f.svc.UpdateStatus(context.Background(), f.order.ID.Hex(), "teleported")
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.As(err).Code)
}

func TestUpdateStatus_NormalizesInput(t *testing.T) {
	f := newOrderFixture(t, models.StatusPending)

	res, err := f.svc.UpdateStatus(context.Background(), f.order.ID.Hex(), "  Shipped ")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, models.StatusShipped, res.Order.Status)
	assert.Equal(t, models.StatusPending, res.PreviousStatus)
}

func TestUpdateStatus_MissingOrder(t *testing.T) {
	f := newOrderFixture(t, models.StatusPending)

	_, err := f.svc.UpdateStatus(context.Background(), primitive.NewObjectID().Hex(), "shipped")
	assert.Equal(t, 404, apperrors.As(err).Code)
	_, err = f.svc.UpdateStatus(context.Background(), "garbage", "shipped")
	assert.Equal(t, 404, apperrors.As(err).Code)
}

func TestUpdateStatus_DeliveredTwiceCreatesOneSale(t *testing.T) {
	f := newOrderFixture(t, models.StatusShipped)
	ctx := context.Background()

	first, err := f.svc.UpdateStatus(ctx, f.order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, first.SaleCreated)

	second, err := f.svc.UpdateStatus(ctx, f.order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.False(t, second.SaleCreated)

	assert.Equal(t, 1, f.sales.count())
	assert.Equal(t, 7, f.products.stock(f.product.ID, ""), "delivery does not touch stock")
}

func TestUpdateStatus_ConcurrentDeliveredCreatesOneSale(t *testing.T) {
	f := newOrderFixture(t, models.StatusProcessing)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.UpdateStatus(context.Background(), f.order.ID.Hex(), models.StatusDelivered)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.sales.count())
}

func TestUpdateStatus_RedeliveryAfterReturnKeepsOneSale(t *testing.T) {
	f := newOrderFixture(t, models.StatusShipped)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, f.order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.order.ID.Hex(), models.StatusShipped)
	require.NoError(t, err)
	res, err := f.svc.UpdateStatus(ctx, f.order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)

	assert.True(t, res.SaleExisted)
	assert.Equal(t, 1, f.sales.count())
}

func TestUpdateStatus_CancelRestocksOnce(t *testing.T) {
	f := newOrderFixture(t, models.StatusPending)
	ctx := context.Background()

	res, err := f.svc.UpdateStatus(ctx, f.order.ID.Hex(), "cancelled")
	require.NoError(t, err)
	require.Len(t, res.Restock, 1)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 10, f.products.stock(f.product.ID, ""))

	_, err = f.svc.UpdateStatus(ctx, f.order.ID.Hex(), "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 10, f.products.stock(f.product.ID, ""))

	entries := f.logs.byReason(models.ReasonOrderCancelled)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Change)
}

func TestUpdateStatus_RestockFailureDoesNotRollBack(t *testing.T) {
	f := newOrderFixture(t, models.StatusDelivered)
	require.NoError(t, f.products.Delete(context.Background(), f.product.ID))

	res, err := f.svc.UpdateStatus(context.Background(), f.order.ID.Hex(), models.StatusReturned)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotEmpty(t, res.Failures)

	stored, err := f.orders.FindByID(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, stored.Status)
}

func TestUpdateStatus_LostRaceReevaluates(t *testing.T) {
	f := newOrderFixture(t, models.StatusPending)
	// another admin cancels between our read and our write
	f.orders.beforeCAS = func() { f.orders.setStatus(f.order.ID, models.StatusCancelled) }

	res, err := f.svc.UpdateStatus(context.Background(), f.order.ID.Hex(), models.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Restock)
	assert.Equal(t, 7, f.products.stock(f.product.ID, ""))
}

func TestUpdateStatus_PublishesEvent(t *testing.T) {
	f := newOrderFixture(t, models.StatusPending)

	_, err := f.svc.UpdateStatus(context.Background(), f.order.ID.Hex(), models.StatusShipped)
	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventOrderStatusChanged, f.events.events[0].Type)
	assert.Equal(t, models.StatusPending, f.events.events[0].PreviousStatus)
}

func TestDeleteAndBulkDelete_PurgeSales(t *testing.T) {
	f := newOrderFixture(t, models.StatusShipped)
	ctx := context.Background()
	_, err := f.svc.UpdateStatus(ctx, f.order.ID.Hex(), models.StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, 1, f.sales.count())

	require.NoError(t, f.svc.Delete(ctx, f.order.ID.Hex()))
	assert.Equal(t, 0, f.sales.count())
	assert.Equal(t, 404, apperrors.As(f.svc.Delete(ctx, f.order.ID.Hex())).Code)

	other := &models.Order{Status: models.StatusPending}
	require.NoError(t, f.orders.Create(ctx, other))
	n, err := f.svc.BulkDelete(ctx, []string{other.ID.Hex(), primitive.NewObjectID().Hex()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.svc.BulkDelete(ctx, []string{"bad"})
	assert.Equal(t, 400, apperrors.As(err).Code)
}
