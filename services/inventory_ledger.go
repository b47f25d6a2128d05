package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/metrics"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StockItem is one line the ledger should apply.
type StockItem struct {
	ProductRef  string
	Title       string
	Quantity    int
	VariantName string
}

func StockItemsFromOrder(items []models.OrderItem) []StockItem {
	out := make([]StockItem, 0, len(items))
	for _, it := range items {
		out = append(out, StockItem{
			ProductRef:  it.ProductID,
			Title:       it.Title,
			Quantity:    it.Quantity,
			VariantName: it.VariantName,
		})
	}
	return out
}

// StockAdjustment reports what happened to one item. Requested is the signed
// delta asked for; Change is what was actually applied after clamping.
type StockAdjustment struct {
	ProductRef    string `json:"productRef"`
	ProductID     string `json:"productId,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	VariantName   string `json:"variantName,omitempty"`
	Requested     int    `json:"requested"`
	Change        int    `json:"change"`
	PreviousStock int    `json:"previousStock"`
	NewStock      int    `json:"newStock"`
	Skipped       bool   `json:"skipped"`
	Err           error  `json:"-"`
	Error         string `json:"error,omitempty"`
}

func (a StockAdjustment) Clamped() bool {
	return !a.Skipped && a.Change != a.Requested
}

func (a *StockAdjustment) fail(err error, skipped bool) {
	a.Err = err
	a.Error = err.Error()
	a.Skipped = skipped
}

// Failed lists the adjustments that were skipped or errored.
func Failed(adjs []StockAdjustment) []StockAdjustment {
	var out []StockAdjustment
	for _, a := range adjs {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// InventoryLedger is the only writer of product stock counters. Every change
// it applies is appended to the inventory log.
type InventoryLedger struct {
	resolver *ProductResolver
	products repository.ProductRepo
	logs     repository.InventoryLogRepo
	logger   *zap.Logger
	now      func() time.Time
}

func NewInventoryLedger(products repository.ProductRepo, logs repository.InventoryLogRepo, logger *zap.Logger) *InventoryLedger {
	return &InventoryLedger{
		resolver: NewProductResolver(products),
		products: products,
		logs:     logs,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Decrement removes ordered quantities. Counters clamp at zero.
func (l *InventoryLedger) Decrement(ctx context.Context, items []StockItem, orderID *primitive.ObjectID) []StockAdjustment {
	return l.applyAll(ctx, items, -1, models.ReasonOrderPlaced, orderID)
}

// Increment puts quantities back, e.g. on cancellation or return.
func (l *InventoryLedger) Increment(ctx context.Context, items []StockItem, orderID *primitive.ObjectID, reason string) []StockAdjustment {
	return l.applyAll(ctx, items, 1, reason, orderID)
}

func (l *InventoryLedger) applyAll(ctx context.Context, items []StockItem, sign int, reason string, orderID *primitive.ObjectID) []StockAdjustment {
	out := make([]StockAdjustment, 0, len(items))
	for _, item := range items {
		adj := l.apply(ctx, item, sign*item.Quantity, reason, orderID)
		out = append(out, adj)
	}
	return out
}

func (l *InventoryLedger) apply(ctx context.Context, item StockItem, delta int, reason string, orderID *primitive.ObjectID) StockAdjustment {
	adj := StockAdjustment{ProductRef: item.ProductRef, VariantName: item.VariantName, Requested: delta}
	log := l.logger.With(
		zap.String("product_ref", item.ProductRef),
		zap.String("variant", item.VariantName),
		zap.String("reason", reason),
	)

	if item.Quantity <= 0 {
		adj.fail(fmt.Errorf("invalid quantity %d", item.Quantity), true)
		log.Warn("Stock adjustment skipped", zap.Error(adj.Err))
		metrics.RecordStockAdjustment(reason, metrics.OutcomeSkipped)
		return adj
	}

	product, err := l.resolver.Resolve(ctx, item.ProductRef, item.Title)
	if err != nil {
		adj.fail(err, true)
		log.Warn("Stock adjustment skipped", zap.Error(err))
		metrics.RecordStockAdjustment(reason, metrics.OutcomeSkipped)
		return adj
	}
	adj.ProductID = product.ID.Hex()
	adj.ProductName = product.Name

	if item.VariantName != "" {
		if _, ok := product.FindVariant(item.VariantName); !ok {
			adj.fail(fmt.Errorf("%w: %s", ErrVariantNotFound, item.VariantName), true)
			log.Warn("Stock adjustment skipped", zap.Error(adj.Err))
			metrics.RecordStockAdjustment(reason, metrics.OutcomeSkipped)
			return adj
		}
	}

	prev, next, err := l.products.AdjustStock(ctx, product.ID, item.VariantName, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// deleted, or variant removed, between resolve and update
			err = ErrProductNotFound
		}
		adj.fail(err, true)
		log.Warn("Stock adjustment failed", zap.Error(err))
		metrics.RecordStockAdjustment(reason, metrics.OutcomeFailed)
		return adj
	}
	adj.PreviousStock, adj.NewStock, adj.Change = prev, next, next-prev

	if err := l.appendLog(ctx, product, item.VariantName, prev, next, reason, orderID); err != nil {
		adj.fail(fmt.Errorf("stock updated but audit log failed: %w", err), false)
		log.Error("Inventory log write failed", zap.Error(err), zap.Int("previous", prev), zap.Int("new", next))
		metrics.RecordStockAdjustment(reason, metrics.OutcomeFailed)
		return adj
	}

	outcome := metrics.OutcomeApplied
	if adj.Clamped() {
		outcome = metrics.OutcomeClamped
		log.Warn("Stock clamped at zero", zap.Int("requested", delta), zap.Int("previous", prev))
	}
	metrics.RecordStockAdjustment(reason, outcome)
	return adj
}

// Adjust sets a counter to an absolute value, for catalog edits. No log entry
// is written when the value is unchanged.
func (l *InventoryLedger) Adjust(ctx context.Context, productID primitive.ObjectID, variantName string, newStock int, reason string) (StockAdjustment, error) {
	adj := StockAdjustment{ProductRef: productID.Hex(), ProductID: productID.Hex(), VariantName: variantName}
	if !models.IsValidInventoryReason(reason) {
		return adj, fmt.Errorf("invalid inventory reason %q", reason)
	}

	product, err := l.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return adj, ErrProductNotFound
		}
		return adj, err
	}
	adj.ProductName = product.Name
	if variantName != "" {
		if _, ok := product.FindVariant(variantName); !ok {
			return adj, fmt.Errorf("%w: %s", ErrVariantNotFound, variantName)
		}
	}

	prev, next, err := l.products.SetStock(ctx, productID, variantName, newStock)
	if err != nil {
		return adj, err
	}
	adj.PreviousStock, adj.NewStock, adj.Change = prev, next, next-prev
	adj.Requested = newStock - prev
	if adj.Change == 0 {
		return adj, nil
	}

	if err := l.appendLog(ctx, product, variantName, prev, next, reason, nil); err != nil {
		l.logger.Error("Inventory log write failed", zap.String("product_id", productID.Hex()), zap.Error(err))
		metrics.RecordStockAdjustment(reason, metrics.OutcomeFailed)
		return adj, fmt.Errorf("stock updated but audit log failed: %w", err)
	}
	metrics.RecordStockAdjustment(reason, metrics.OutcomeApplied)
	return adj, nil
}

func (l *InventoryLedger) appendLog(ctx context.Context, p *models.Product, variant string, prev, next int, reason string, orderID *primitive.ObjectID) error {
	return l.logs.Insert(ctx, &models.InventoryLog{
		ProductID:     p.ID,
		ProductName:   p.Name,
		VariantName:   variant,
		Change:        next - prev,
		PreviousStock: prev,
		NewStock:      next,
		Reason:        reason,
		Meta:          models.InventoryLogMeta{OrderID: orderID},
		CreatedAt:     l.now(),
	})
}
