package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/metrics"
	"storefront-service/models"
	"storefront-service/payments"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CartItem is a storefront cart line. Prices are in cents.
type CartItem struct {
	ProductID   string `json:"productId"`
	Title       string `json:"title" binding:"required"`
	UnitPrice   int64  `json:"unitPrice" binding:"min=0"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
	VariantName string `json:"variantName"`
}

type CheckoutRequest struct {
	Cart        []CartItem      `json:"cart" binding:"required,min=1,dive"`
	Customer    models.Customer `json:"customer" binding:"required"`
	ShippingFee int64           `json:"shippingFee" binding:"min=0"`
}

type StripeSessionRequest struct {
	Cart       []CartItem      `json:"cart" binding:"required,min=1,dive"`
	Customer   models.Customer `json:"customer" binding:"required"`
	SuccessURL string          `json:"successUrl" binding:"required"`
	CancelURL  string          `json:"cancelUrl" binding:"required"`
}

// CheckoutResult reports the best-effort work done after the order was saved.
type CheckoutResult struct {
	Order          *models.Order     `json:"order"`
	Duplicate      bool              `json:"duplicate,omitempty"`
	Stock          []StockAdjustment `json:"stock"`
	EmailQueued    bool              `json:"emailQueued"`
	CustomerLinked bool              `json:"customerLinked"`
	EventPublished bool              `json:"eventPublished"`
	Failures       []string          `json:"failures,omitempty"`
}

// stripeCartLine is the cart snapshot stored in session metadata.
type stripeCartLine struct {
	ProductID   string  `json:"productId"`
	VariantName string  `json:"variantName"`
	Quantity    int     `json:"quantity"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
}

type CheckoutService struct {
	resolver *ProductResolver
	orders   *OrderService
	ledger   StockLedger
	users    repository.UserRepo
	webhooks repository.WebhookEventRepo
	email    EmailQueue
	events   EventPublisher
	gateway  PaymentGateway
	logger   *zap.Logger
}

type CheckoutDeps struct {
	Products repository.ProductRepo
	Orders   *OrderService
	Ledger   StockLedger
	Users    repository.UserRepo
	Webhooks repository.WebhookEventRepo
	Email    EmailQueue
	Events   EventPublisher
	Gateway  PaymentGateway
}

func NewCheckoutService(d CheckoutDeps, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		resolver: NewProductResolver(d.Products),
		orders:   d.Orders,
		ledger:   d.Ledger,
		users:    d.Users,
		webhooks: d.Webhooks,
		email:    d.Email,
		events:   d.Events,
		gateway:  d.Gateway,
		logger:   logger,
	}
}

func centsToDollars(c int64) float64 {
	return float64(c) / 100
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// PlaceCODOrder validates stock for every line, persists the order and then
// runs the post-order side effects. Nothing is created when any line fails.
func (s *CheckoutService) PlaceCODOrder(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	items := make([]models.OrderItem, 0, len(req.Cart))
	var subtotal float64
	for _, line := range req.Cart {
		item := models.OrderItem{
			ProductID:   line.ProductID,
			Title:       line.Title,
			Price:       centsToDollars(line.UnitPrice),
			Quantity:    line.Quantity,
			VariantName: strings.TrimSpace(line.VariantName),
		}
		if err := s.validateLine(ctx, &item); err != nil {
			return nil, err
		}
		subtotal += item.Price * float64(item.Quantity)
		items = append(items, item)
	}

	shipping := centsToDollars(req.ShippingFee)
	order := &models.Order{
		Products:      items,
		Customer:      req.Customer,
		PaymentMethod: models.PaymentMethodCOD,
		Subtotal:      roundMoney(subtotal),
		ShippingFee:   shipping,
		Tax:           0,
		TotalAmount:   roundMoney(subtotal + shipping),
		Status:        models.StatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("COD order placed", zap.String("order_id", order.OrderID), zap.Float64("total", order.TotalAmount))

	return s.afterOrder(ctx, order), nil
}

// validateLine checks stock for one line and snapshots the product image and
// canonical id onto it.
func (s *CheckoutService) validateLine(ctx context.Context, item *models.OrderItem) error {
	product, err := s.resolver.Resolve(ctx, item.ProductID, item.Title)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return apperrors.BadRequest("Product not found: " + item.Title)
		}
		return err
	}
	item.ProductID = product.ID.Hex()
	item.Image = PrimaryImage(product)

	if item.VariantName != "" {
		v, ok := product.FindVariant(item.VariantName)
		if !ok {
			return apperrors.BadRequest(fmt.Sprintf("Variant not found for %s: %s", product.Name, item.VariantName))
		}
		if v.InStock < item.Quantity {
			return apperrors.ErrInsufficientStock.WithMessage(fmt.Sprintf("%s (%s) is out of stock or insufficient quantity", product.Name, v.Name))
		}
		return nil
	}
	if product.InStock < item.Quantity {
		return apperrors.ErrInsufficientStock.WithMessage(fmt.Sprintf("%s is out of stock or insufficient quantity", product.Name))
	}
	return nil
}

// afterOrder runs the side effects shared by COD and online orders. None of
// them can fail the checkout; each outcome is reported in the result.
func (s *CheckoutService) afterOrder(ctx context.Context, order *models.Order) *CheckoutResult {
	res := &CheckoutResult{Order: order}
	log := s.logger.With(zap.String("order_id", order.OrderID))

	res.Stock = s.ledger.Decrement(ctx, StockItemsFromOrder(order.Products), &order.ID)
	for _, f := range Failed(res.Stock) {
		res.Failures = append(res.Failures, fmt.Sprintf("stock %s: %s", f.ProductRef, f.Error))
	}

	if s.email != nil {
		if err := s.email.EnqueueOrderConfirmation(ctx, order); err != nil {
			res.Failures = append(res.Failures, "email: "+err.Error())
			metrics.RecordSideEffectFailure("email")
			log.Warn("Order confirmation email failed", zap.Error(err))
		} else {
			res.EmailQueued = true
		}
	}

	if err := s.linkCustomer(ctx, order); err != nil {
		res.Failures = append(res.Failures, "customer: "+err.Error())
		metrics.RecordSideEffectFailure("customer")
		log.Warn("Customer profile upsert failed", zap.Error(err))
	} else {
		res.CustomerLinked = order.Customer.Email != ""
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, models.NewOrderEvent(models.EventOrderCreated, order, "")); err != nil {
			res.Failures = append(res.Failures, "event: "+err.Error())
			metrics.RecordSideEffectFailure("event")
			log.Warn("Order event publish failed", zap.Error(err))
		} else {
			res.EventPublished = true
		}
	}
	return res
}

// linkCustomer attaches the order to the user with the customer's email,
// creating a passwordless guest account when there is none. Admin profiles
// keep their own contact details.
func (s *CheckoutService) linkCustomer(ctx context.Context, order *models.Order) error {
	c := order.Customer
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		user, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			set := map[string]interface{}{}
			if !user.IsAdmin() {
				set = map[string]interface{}{
					"fullName":   c.FullName,
					"phone":      c.Phone,
					"address":    c.Address,
					"city":       c.City,
					"postalCode": c.PostalCode,
					"country":    c.Country,
				}
			}
			return s.users.AttachOrder(ctx, user.ID, order.ID, set)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		err = s.users.Create(ctx, &models.User{
			Email:      email,
			FullName:   c.FullName,
			Role:       models.RoleUser,
			Phone:      c.Phone,
			Address:    c.Address,
			City:       c.City,
			PostalCode: c.PostalCode,
			Country:    c.Country,
			Orders:     []primitive.ObjectID{order.ID},
		})
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		// a concurrent checkout created the account first; attach to it
	}
	return fmt.Errorf("could not link order to %s", email)
}

// CreateStripeSession starts a hosted checkout. The cart and customer ride
// along in session metadata and come back in the webhook.
func (s *CheckoutService) CreateStripeSession(ctx context.Context, req StripeSessionRequest) (*payments.Session, error) {
	customerJSON, err := json.Marshal(req.Customer)
	if err != nil {
		return nil, err
	}
	lines := make([]stripeCartLine, 0, len(req.Cart))
	items := make([]payments.LineItem, 0, len(req.Cart))
	for _, c := range req.Cart {
		lines = append(lines, stripeCartLine{
			ProductID:   c.ProductID,
			VariantName: c.VariantName,
			Quantity:    c.Quantity,
			Title:       c.Title,
			Price:       centsToDollars(c.UnitPrice),
		})
		items = append(items, payments.LineItem{Name: c.Title, UnitCents: c.UnitPrice, Quantity: int64(c.Quantity)})
	}
	cartJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, payments.SessionParams{
		Items:         items,
		CustomerEmail: req.Customer.Email,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata: map[string]string{
			"customerData": string(customerJSON),
			"cartData":     string(cartJSON),
		},
	})
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error creating Stripe session")
	}
	return sess, nil
}

// HandleStripeEvent turns a completed checkout session into an online order.
// Each provider event is processed at most once.
func (s *CheckoutService) HandleStripeEvent(ctx context.Context, evt *payments.CompletedCheckout) (*CheckoutResult, error) {
	if evt == nil {
		return nil, nil
	}
	log := s.logger.With(zap.String("event_id", evt.EventID), zap.String("session_id", evt.SessionID))

	first, err := s.webhooks.MarkProcessed(ctx, &models.WebhookEvent{EventID: evt.EventID, Type: payments.EventCheckoutSessionCompleted})
	if err != nil {
		return nil, fmt.Errorf("record webhook event: %w", err)
	}
	if !first {
		log.Info("Duplicate Stripe event ignored")
		return &CheckoutResult{Duplicate: true}, nil
	}

	order, err := s.orderFromSession(ctx, evt)
	if err == nil {
		err = s.orders.Create(ctx, order)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Info("Order already exists for Stripe session")
			return &CheckoutResult{Duplicate: true}, nil
		}
		if relErr := s.webhooks.Release(ctx, evt.EventID); relErr != nil {
			log.Error("Webhook event release failed; retry will be ignored", zap.Error(relErr))
		}
		return nil, err
	}
	log.Info("Online order placed", zap.String("order_id", order.OrderID), zap.Float64("total", order.TotalAmount))

	return s.afterOrder(ctx, order), nil
}

func (s *CheckoutService) orderFromSession(ctx context.Context, evt *payments.CompletedCheckout) (*models.Order, error) {
	var customer models.Customer
	if err := json.Unmarshal([]byte(evt.Metadata["customerData"]), &customer); err != nil {
		return nil, apperrors.BadRequest("Invalid customerData metadata").Wrap(err)
	}
	var lines []stripeCartLine
	if raw := evt.Metadata["cartData"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			return nil, apperrors.BadRequest("Invalid cartData metadata").Wrap(err)
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	var subtotal float64
	for _, l := range lines {
		item := models.OrderItem{
			ProductID:   l.ProductID,
			Title:       l.Title,
			Price:       l.Price,
			Quantity:    l.Quantity,
			VariantName: l.VariantName,
		}
		if p, err := s.resolver.Resolve(ctx, l.ProductID, l.Title); err == nil {
			item.Image = PrimaryImage(p)
		}
		subtotal += l.Price * float64(l.Quantity)
		items = append(items, item)
	}

	total := centsToDollars(evt.AmountTotal)
	return &models.Order{
		Products:        items,
		Customer:        customer,
		PaymentMethod:   models.PaymentMethodOnline,
		Subtotal:        roundMoney(subtotal),
		ShippingFee:     roundMoney(math.Max(0, total-subtotal)),
		TotalAmount:     total,
		Status:          models.StatusProcessing,
		StripeSessionID: evt.SessionID,
	}, nil
}
