package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type adminFixture struct {
	svc      *AdminService
	orders   *fakeOrderRepo
	sales    *fakeSaleRepo
	products *fakeProductRepo
	users    *fakeUserRepo
	logs     *fakeLogRepo
}

func newAdminFixture(products ...*models.Product) *adminFixture {
	f := &adminFixture{
		orders:   newFakeOrderRepo(),
		sales:    newFakeSaleRepo(),
		products: newFakeProductRepo(products...),
		users:    newFakeUserRepo(),
		logs:     &fakeLogRepo{},
	}
	f.svc = NewAdminService(f.orders, f.sales, f.products, f.users, f.logs, zap.NewNop())
	return f
}

func TestDashboard(t *testing.T) {
	f := newAdminFixture(
		&models.Product{Name: "Plenty", InStock: 50, MinStock: 5},
		&models.Product{Name: "Scarce", InStock: 2, MinStock: 5},
		&models.Product{Name: "Variant low", InStock: 50, MinStock: 5, Variants: []models.Variant{{Name: "S", InStock: 1, MinStock: 3}}},
	)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		o := &models.Order{TotalAmount: 10.125, Status: models.StatusPending}
		require.NoError(t, f.orders.Create(ctx, o))
		if i < 3 {
			require.NoError(t, f.sales.Create(ctx, models.NewSaleFromOrder(o, time.Now())))
		}
	}
	require.NoError(t, f.sales.Create(ctx, &models.Sale{OrderID: primitive.NewObjectID(), TotalAmount: 99, SaleDate: time.Now().AddDate(-1, 0, 0)}))
	require.NoError(t, f.users.Create(ctx, &models.User{Email: "a@example.com", Role: models.RoleUser}))
	require.NoError(t, f.users.Create(ctx, &models.User{Email: "boss@example.com", Role: models.RoleAdmin}))

	d, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(7), d.Counts.Orders)
	assert.Equal(t, int64(1), d.Counts.Customers)
	assert.Equal(t, int64(3), d.Counts.Products)
	assert.Equal(t, 129.38, d.Counts.SalesTotal)
	assert.Len(t, d.RecentOrders, 5)
	require.Len(t, d.MonthlySales, 1)
	assert.Equal(t, 3, d.MonthlySales[0].Count)

	names := []string{}
	for _, p := range d.LowStockAlerts {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Scarce", "Variant low"}, names)
}

func TestUsers_DeleteRules(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	admin := &models.User{Email: "boss@example.com", Role: models.RoleAdmin}
	alice := &models.User{Email: "alice@example.com", Role: models.RoleUser}
	bob := &models.User{Email: "bob@example.com", Role: models.RoleUser}
	for _, u := range []*models.User{admin, alice, bob} {
		require.NoError(t, f.users.Create(ctx, u))
	}

	assert.True(t, errors.Is(f.svc.DeleteUser(ctx, admin.ID.Hex()), ErrCannotDeleteAdmin))
	require.NoError(t, f.svc.DeleteUser(ctx, alice.ID.Hex()))
	assert.True(t, errors.Is(f.svc.DeleteUser(ctx, alice.ID.Hex()), ErrUserNotFound))

	_, err := f.svc.BulkDeleteUsers(ctx, nil)
	assert.True(t, errors.Is(err, ErrNoUserIDs))

	n, err := f.svc.BulkDeleteUsers(ctx, []string{admin.ID.Hex(), bob.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = f.users.FindByID(ctx, admin.ID)
	assert.NoError(t, err)
}

func TestUsers_LookupAndNotes(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	order := &models.Order{TotalAmount: 40}
	require.NoError(t, f.orders.Create(ctx, order))
	u := &models.User{Email: "carla@example.com", Role: models.RoleUser, Orders: []primitive.ObjectID{order.ID}}
	require.NoError(t, f.users.Create(ctx, u))

	byEmail, err := f.svc.GetUserByEmail(ctx, " Carla@Example.com ")
	require.NoError(t, err)
	require.Len(t, byEmail.OrderDocs, 1)
	assert.Equal(t, order.ID, byEmail.OrderDocs[0].ID)

	_, err = f.svc.AddNote(ctx, u.ID.Hex(), NoteInput{Category: "gossip", Message: "x"})
	assert.Error(t, err)

	updated, err := f.svc.AddNote(ctx, u.ID.Hex(), NoteInput{Category: "Shipping", Message: "Leave at door", IsHighPriority: true})
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)
	assert.Equal(t, "shipping", updated.Notes[0].Category)

	customers, err := f.svc.Customers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestInventoryLogs_FilterAndPaging(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	pid := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.logs.Insert(ctx, &models.InventoryLog{ProductID: pid, Reason: models.ReasonOrderPlaced, Change: -1}))
	}
	require.NoError(t, f.logs.Insert(ctx, &models.InventoryLog{ProductID: primitive.NewObjectID(), Reason: models.ReasonProductEdit}))

	page, err := f.svc.InventoryLogs(ctx, InventoryLogQuery{ProductID: pid.Hex(), Reason: models.ReasonOrderPlaced, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Logs, 2)
	assert.Equal(t, 2, page.TotalPages)

	_, err = f.svc.InventoryLogs(ctx, InventoryLogQuery{Reason: "theft"})
	assert.Error(t, err)
}
