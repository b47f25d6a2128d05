package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/metrics"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxStatusAttempts bounds compare-and-set retries when another writer keeps
// changing the order underneath us.
const maxStatusAttempts = 5

var (
	ErrOrderNotFound = apperrors.NotFound("Order not found")
	ErrInvalidStatus = apperrors.BadRequest("Invalid status")
	ErrStatusRace    = apperrors.New(http.StatusConflict, "Order status changed concurrently, please retry", nil)
)

// TransitionResult describes what a status update did. Side-effect failures
// are reported here and never undo the status change.
type TransitionResult struct {
	Order          *models.Order     `json:"order"`
	PreviousStatus string            `json:"previousStatus"`
	Changed        bool              `json:"changed"`
	SaleCreated    bool              `json:"saleCreated"`
	SaleExisted    bool              `json:"saleExisted"`
	Restock        []StockAdjustment `json:"restock,omitempty"`
	Failures       []string          `json:"failures,omitempty"`
}

type OrderService struct {
	orders repository.OrderRepo
	sales  repository.SaleRepo
	ledger StockLedger
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(orders repository.OrderRepo, sales repository.SaleRepo, ledger StockLedger, events EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		sales:  sales,
		ledger: ledger,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func parseOrderID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrOrderNotFound
	}
	return oid, nil
}

// Create persists a new order; the repository derives its orderId.
func (s *OrderService) Create(ctx context.Context, order *models.Order) error {
	if err := s.orders.Create(ctx, order); err != nil {
		return apperrors.ErrInternalServer.Wrap(err).WithMessage("Error creating order")
	}
	metrics.RecordOrderPlaced(order.PaymentMethod)
	return nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.orders.FindAll(ctx)
}

// ListForUser returns the orders linked to a user, newest first.
func (s *OrderService) ListForUser(ctx context.Context, user *models.User) ([]models.Order, error) {
	return s.orders.FindByIDs(ctx, user.Orders)
}

// UpdateStatus moves an order to status and fires the side effects of
// entering it. Only the caller whose compare-and-set wins runs them, so a
// repeated or concurrent request for the same status is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*TransitionResult, error) {
	status = models.NormalizeStatus(status)
	if !models.IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		order, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if order.Status == status {
			return &TransitionResult{Order: order, PreviousStatus: status}, nil
		}

		from := order.Status
		won, err := s.orders.CompareAndSetStatus(ctx, order.ID, from, status)
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		if !won {
			s.logger.Debug("Order status compare-and-set lost, retrying",
				zap.String("order_id", order.OrderID), zap.String("from", from), zap.String("to", status))
			continue
		}

		order.Status = status
		order.UpdatedAt = s.now()
		metrics.RecordTransition(from, status)
		res := &TransitionResult{Order: order, PreviousStatus: from, Changed: true}
		s.applySideEffects(ctx, order, from, res)
		s.publish(ctx, models.NewOrderEvent(models.EventOrderStatusChanged, order, from))
		return res, nil
	}
	return nil, ErrStatusRace
}

func (s *OrderService) applySideEffects(ctx context.Context, order *models.Order, from string, res *TransitionResult) {
	log := s.logger.With(zap.String("order_id", order.OrderID), zap.String("from", from), zap.String("to", order.Status))

	switch order.Status {
	case models.StatusDelivered:
		err := s.sales.Create(ctx, models.NewSaleFromOrder(order, s.now()))
		switch {
		case err == nil:
			res.SaleCreated = true
			log.Info("Sale recorded")
		case errors.Is(err, repository.ErrDuplicate):
			res.SaleExisted = true
			log.Info("Sale already exists for order")
		default:
			res.Failures = append(res.Failures, "sale: "+err.Error())
			metrics.RecordSideEffectFailure("sale")
			log.Error("Sale creation failed", zap.Error(err))
		}

	case models.StatusCancelled, models.StatusReturned:
		reason := models.ReasonOrderCancelled
		if order.Status == models.StatusReturned {
			reason = models.ReasonOrderReturned
		}
		res.Restock = s.ledger.Increment(ctx, StockItemsFromOrder(order.Products), &order.ID, reason)
		for _, f := range Failed(res.Restock) {
			res.Failures = append(res.Failures, fmt.Sprintf("restock %s: %s", f.ProductRef, f.Error))
		}
		if len(res.Failures) > 0 {
			metrics.RecordSideEffectFailure("restock")
			log.Warn("Restock incomplete; reconcile manually", zap.Strings("failures", res.Failures))
		}
	}
}

func (s *OrderService) publish(ctx context.Context, evt models.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		metrics.RecordSideEffectFailure("event")
		s.logger.Warn("Order event publish failed", zap.String("type", evt.Type), zap.String("order_id", evt.OrderCode), zap.Error(err))
	}
}

// Delete purges an order together with its sale.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	oid, err := parseOrderID(id)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if _, err := s.sales.DeleteByOrderIDs(ctx, []primitive.ObjectID{oid}); err != nil {
		s.logger.Warn("Sale purge failed", zap.String("order_id", id), zap.Error(err))
	}
	return nil
}

// BulkDelete purges orders and their sales and returns how many orders went.
func (s *OrderService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.BadRequest("No order IDs provided")
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, apperrors.BadRequest("Invalid order ID: " + id)
		}
		oids = append(oids, oid)
	}
	n, err := s.orders.DeleteMany(ctx, oids)
	if err != nil {
		return 0, err
	}
	if _, err := s.sales.DeleteByOrderIDs(ctx, oids); err != nil {
		s.logger.Warn("Sale purge failed", zap.Int("orders", len(oids)), zap.Error(err))
	}
	return n, nil
}
