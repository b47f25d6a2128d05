package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	dashboardRecentOrders = 5
	dashboardProducts     = 5
	dashboardMonths       = 6
	defaultLogPageSize    = 50
	maxLogPageSize        = 200
)

var (
	ErrUserNotFound      = apperrors.NotFound("User not found")
	ErrCannotDeleteAdmin = apperrors.BadRequest("Cannot delete admin users")
	ErrNoUserIDs         = apperrors.BadRequest("No user IDs provided")
)

type NoteInput struct {
	Category       string `json:"category"`
	Message        string `json:"message"`
	IsHighPriority bool   `json:"isHighPriority"`
	AddedBy        string `json:"addedBy"`
}

// InventoryLogQuery selects one page of the stock audit trail.
type InventoryLogQuery struct {
	ProductID string
	Reason    string
	Page      int
	PerPage   int
}

type InventoryLogPage struct {
	Logs       []models.InventoryLog `json:"logs"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"perPage"`
	TotalPages int                   `json:"totalPages"`
}

type AdminService struct {
	orders   repository.OrderRepo
	sales    repository.SaleRepo
	products repository.ProductRepo
	users    repository.UserRepo
	logs     repository.InventoryLogRepo
	logger   *zap.Logger
	now      func() time.Time
}

func NewAdminService(orders repository.OrderRepo, sales repository.SaleRepo, products repository.ProductRepo,
	users repository.UserRepo, logs repository.InventoryLogRepo, logger *zap.Logger) *AdminService {
	return &AdminService{
		orders:   orders,
		sales:    sales,
		products: products,
		users:    users,
		logs:     logs,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Dashboard gathers the admin overview. Sales figures come from the sale
// records, so only delivered orders count towards revenue.
func (s *AdminService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var d models.Dashboard
	var err error

	if d.Counts.Orders, err = s.orders.Count(ctx); err != nil {
		return nil, err
	}
	if d.Counts.Customers, err = s.users.CountByRole(ctx, models.RoleUser); err != nil {
		return nil, err
	}
	if d.Counts.Products, err = s.products.Count(ctx, repository.ProductFilter{}); err != nil {
		return nil, err
	}
	total, err := s.sales.TotalAmount(ctx)
	if err != nil {
		return nil, err
	}
	d.Counts.SalesTotal = math.Round(total*100) / 100

	if d.RecentOrders, err = s.orders.Recent(ctx, dashboardRecentOrders); err != nil {
		return nil, err
	}
	if d.Products, err = s.products.Find(ctx, repository.ProductFilter{Limit: dashboardProducts}); err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, -dashboardMonths, 0)
	if d.MonthlySales, err = s.sales.MonthlyTotals(ctx, since); err != nil {
		return nil, err
	}
	if d.LowStockAlerts, err = s.products.FindLowStock(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}

// Customers lists non-admin users that have ordered at least once.
func (s *AdminService) Customers(ctx context.Context) ([]models.User, error) {
	return s.users.FindCustomers(ctx)
}

func (s *AdminService) withOrders(ctx context.Context, u *models.User) (*models.UserWithOrders, error) {
	orders, err := s.orders.FindByIDs(ctx, u.Orders)
	if err != nil {
		return nil, err
	}
	return &models.UserWithOrders{User: *u, OrderDocs: orders}, nil
}

func (s *AdminService) findUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*models.UserWithOrders, error) {
	u, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withOrders(ctx, u)
}

func (s *AdminService) GetUserByEmail(ctx context.Context, email string) (*models.UserWithOrders, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.withOrders(ctx, u)
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		return ErrCannotDeleteAdmin
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.Info("User deleted", zap.String("user_id", u.ID.Hex()))
	return nil
}

// BulkDeleteUsers deletes the listed customers; admin ids are ignored.
func (s *AdminService) BulkDeleteUsers(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoUserIDs
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, apperrors.BadRequest("Invalid user id: " + id)
		}
		oids = append(oids, oid)
	}
	return s.users.DeleteManyByRole(ctx, oids, models.RoleUser)
}

func (s *AdminService) AddNote(ctx context.Context, id string, in NoteInput) (*models.User, error) {
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = "other"
	}
	if !models.NoteCategories[category] {
		return nil, apperrors.BadRequest("Invalid note category")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperrors.BadRequest("Note message is required")
	}
	u, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.users.AddNote(ctx, u.ID, models.Note{
		Category:       category,
		Message:        strings.TrimSpace(in.Message),
		IsHighPriority: in.IsHighPriority,
		AddedBy:        strings.TrimSpace(in.AddedBy),
		CreatedAt:      s.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return updated, nil
}

// InventoryLogs returns the audit trail newest first, optionally narrowed
// to one product and one reason.
func (s *AdminService) InventoryLogs(ctx context.Context, q InventoryLogQuery) (*InventoryLogPage, error) {
	filter := repository.InventoryLogFilter{Reason: strings.TrimSpace(q.Reason)}
	if filter.Reason != "" && !models.IsValidInventoryReason(filter.Reason) {
		return nil, apperrors.BadRequest("Invalid reason")
	}
	if q.ProductID != "" {
		oid, err := primitive.ObjectIDFromHex(q.ProductID)
		if err != nil {
			return nil, apperrors.BadRequest("Invalid product id")
		}
		filter.ProductID = &oid
	}
	page := max(q.Page, 1)
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = defaultLogPageSize
	}
	perPage = min(perPage, maxLogPageSize)
	filter.Limit = int64(perPage)
	filter.Skip = int64((page - 1) * perPage)

	logs, total, err := s.logs.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &InventoryLogPage{
		Logs:       logs,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}, nil
}
