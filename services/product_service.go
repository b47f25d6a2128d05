package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const productFolder = "storefront/products"

var (
	ErrProductMissing   = apperrors.NotFound("Product not found")
	ErrInvalidVariants  = apperrors.BadRequest("Invalid variants format, must be a JSON array")
	ErrImageUpload      = apperrors.ErrInternalServer.WithMessage("Image upload failed")
	ErrNoBulkIDs        = apperrors.BadRequest("No product IDs provided")
	ErrNoBulkFields     = apperrors.BadRequest("No valid update fields provided")
	bulkUpdatableFields = map[string]bool{"featured": true, "category": true, "categoryId": true, "inStock": true}
)

// ListProductsParams defines the parameters for listing products.
type ListProductsParams struct {
	Page       int
	PerPage    int
	Category   string
	CategoryID *primitive.ObjectID
	Featured   *bool
}

// ProductForm is the multipart product form. Stock and minStock are
// pointers so an edit can tell "absent" from zero.
type ProductForm struct {
	Name        string  `form:"name" validate:"required"`
	Price       float64 `form:"price" validate:"gte=0"`
	Description string  `form:"description"`
	Category    string  `form:"category"`
	CategoryID  string  `form:"categoryId"`
	InStock     *int    `form:"inStock" validate:"omitempty,gte=0"`
	MinStock    *int    `form:"minStock" validate:"omitempty,gte=0"`
	Featured    bool    `form:"featured"`
	Assured     bool    `form:"assured"`
	Variants    string  `form:"variants"`
}

// MediaChange describes what a form did with one media slot. Upload wins
// over Value; both nil means the field was absent.
type MediaChange struct {
	Upload *media.UploadInput
	Value  *string
}

type ProductService struct {
	products repository.ProductRepo
	ledger   StockLedger
	media    media.Store
	logger   *zap.Logger
	now      func() time.Time
}

func NewProductService(products repository.ProductRepo, ledger StockLedger, store media.Store, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		ledger:   ledger,
		media:    store,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func parseProductID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrProductMissing
	}
	return oid, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductMissing
		}
		return nil, err
	}
	return p, nil
}

// ListProducts returns one page of products plus the total match count.
// A zero PerPage returns everything.
func (s *ProductService) ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, int64, error) {
	filter := repository.ProductFilter{
		Category:   params.Category,
		CategoryID: params.CategoryID,
		Featured:   params.Featured,
	}
	if params.PerPage > 0 {
		page := max(params.Page, 1)
		filter.Limit = int64(params.PerPage)
		filter.Skip = int64((page - 1) * params.PerPage)
	}

	products, err := s.products.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func parseVariants(raw string) ([]models.Variant, bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, false, nil
	}
	var variants []models.Variant
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		return nil, false, ErrInvalidVariants
	}
	for i := range variants {
		variants[i].Name = strings.TrimSpace(variants[i].Name)
		if variants[i].Name == "" {
			return nil, false, apperrors.BadRequest("Variant name is required")
		}
		if variants[i].InStock < 0 {
			variants[i].InStock = 0
		}
		if variants[i].MinStock == 0 {
			variants[i].MinStock = models.DefaultMinStock
		}
	}
	return variants, true, nil
}

func parseCategoryID(raw string) (*primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid category id")
	}
	return &oid, nil
}

func minStockOrDefault(v *int) int {
	if v == nil || *v <= 0 {
		return models.DefaultMinStock
	}
	return *v
}

type pendingDelete struct {
	id    string
	video bool
}

// CreateProduct stores a new product. Each media slot may carry an upload
// or a URL; a failed primary image upload aborts the create, other slots
// are skipped on failure.
func (s *ProductService) CreateProduct(ctx context.Context, form ProductForm, mediaChanges map[string]MediaChange) (*models.Product, error) {
	variants, _, err := parseVariants(form.Variants)
	if err != nil {
		return nil, err
	}
	categoryID, err := parseCategoryID(form.CategoryID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		Name:        strings.TrimSpace(form.Name),
		Price:       form.Price,
		Description: form.Description,
		Category:    strings.TrimSpace(form.Category),
		CategoryID:  categoryID,
		MinStock:    minStockOrDefault(form.MinStock),
		Featured:    form.Featured,
		Assured:     form.Assured,
		Variants:    variants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	if form.InStock != nil {
		p.InStock = *form.InStock
	}

	var uploaded []pendingDelete
	for _, slot := range models.ProductMediaSlots {
		change, ok := mediaChanges[slot.Field]
		if !ok {
			continue
		}
		switch {
		case change.Upload != nil:
			asset, err := s.upload(ctx, slot, change.Upload)
			if err != nil {
				if slot.Primary {
					s.discardAll(ctx, uploaded)
					return nil, ErrImageUpload.Wrap(err)
				}
				s.logger.Warn("Optional media upload failed", zap.String("slot", slot.Field), zap.Error(err))
				continue
			}
			p.SetMedia(slot, asset.URL, asset.ID)
			uploaded = append(uploaded, pendingDelete{asset.ID, slot.Video})
		case change.Value != nil && strings.TrimSpace(*change.Value) != "":
			p.SetMedia(slot, strings.TrimSpace(*change.Value), "")
		}
	}

	if err := s.products.Create(ctx, p); err != nil {
		s.discardAll(ctx, uploaded)
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error creating product")
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID.Hex()), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct applies an edit form. Stock changes go through the ledger so
// they are audited with reason product-edit; replaced media files are
// deleted only after the document points at their replacements.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, form ProductForm, mediaChanges map[string]MediaChange) (*models.Product, error) {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, hasVariants, err := parseVariants(form.Variants)
	if err != nil {
		return nil, err
	}
	categoryID, err := parseCategoryID(form.CategoryID)
	if err != nil {
		return nil, err
	}

	set := map[string]interface{}{
		"name":        strings.TrimSpace(form.Name),
		"price":       form.Price,
		"description": form.Description,
		"categoryId":  categoryID,
		"minStock":    minStockOrDefault(form.MinStock),
		"featured":    form.Featured,
		"assured":     form.Assured,
	}
	if c := strings.TrimSpace(form.Category); c != "" {
		set["category"] = c
	}

	// Variant stock is written by the ledger below. The variant list update
	// keeps whatever counter is stored at write time.
	type stockEdit struct {
		variant string
		value   int
	}
	var stockEdits []stockEdit
	if form.InStock != nil && *form.InStock != existing.InStock {
		stockEdits = append(stockEdits, stockEdit{value: *form.InStock})
	}
	if hasVariants {
		for i := range variants {
			if prev, ok := existing.FindVariant(variants[i].Name); ok {
				if variants[i].InStock != prev.InStock {
					stockEdits = append(stockEdits, stockEdit{variant: variants[i].Name, value: variants[i].InStock})
				}
			}
		}
	}

	var uploaded, deletes []pendingDelete
	for _, slot := range models.ProductMediaSlots {
		change, ok := mediaChanges[slot.Field]
		if !ok {
			continue
		}
		oldURL, oldID := existing.Media(slot)
		switch {
		case change.Upload != nil:
			asset, err := s.upload(ctx, slot, change.Upload)
			if err != nil {
				if slot.Primary {
					s.discardAll(ctx, uploaded)
					return nil, ErrImageUpload.Wrap(err)
				}
				s.logger.Warn("Optional media upload failed", zap.String("slot", slot.Field), zap.Error(err))
				continue
			}
			set[slot.URLKey], set[slot.IDKey] = asset.URL, asset.ID
			uploaded = append(uploaded, pendingDelete{asset.ID, slot.Video})
			deletes = append(deletes, pendingDelete{oldID, slot.Video})
		case change.Value == nil:
		case strings.TrimSpace(*change.Value) == "":
			set[slot.URLKey], set[slot.IDKey] = "", ""
			deletes = append(deletes, pendingDelete{oldID, slot.Video})
		default:
			url := strings.TrimSpace(*change.Value)
			if url == oldURL {
				continue
			}
			set[slot.URLKey], set[slot.IDKey] = url, ""
			deletes = append(deletes, pendingDelete{oldID, slot.Video})
		}
		if slot.Primary {
			if _, changed := set[slot.URLKey]; changed {
				set["thumbnailUrl"] = ""
			}
		}
	}

	if hasVariants {
		err = s.products.UpdateWithVariants(ctx, existing.ID, set, variants)
	} else {
		err = s.products.Update(ctx, existing.ID, set)
	}
	if err != nil {
		s.discardAll(ctx, uploaded)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductMissing
		}
		return nil, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error updating product")
	}

	for _, e := range stockEdits {
		if _, err := s.ledger.Adjust(ctx, existing.ID, e.variant, e.value, models.ReasonProductEdit); err != nil {
			s.logger.Error("Stock edit failed",
				zap.String("product_id", existing.ID.Hex()),
				zap.String("variant", e.variant),
				zap.Error(err))
		}
	}
	for _, d := range deletes {
		s.discard(ctx, d.id, d.video)
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes every media file of the product, then the product.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	for _, slot := range models.ProductMediaSlots {
		_, fileID := existing.Media(slot)
		s.discard(ctx, fileID, slot.Video)
	}
	if err := s.products.Delete(ctx, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductMissing
		}
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", existing.ID.Hex()))
	return nil
}

// BulkUpdate sets whitelisted fields on many products. inStock is applied
// per product through the ledger as an admin adjustment.
func (s *ProductService) BulkUpdate(ctx context.Context, ids []string, updates map[string]interface{}) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoBulkIDs
	}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, apperrors.BadRequest("Invalid product id: " + id)
		}
		oids = append(oids, oid)
	}

	set := map[string]interface{}{}
	stock := -1
	for key, val := range updates {
		if !bulkUpdatableFields[key] {
			continue
		}
		switch key {
		case "inStock":
			n, ok := toInt(val)
			if !ok || n < 0 {
				return 0, apperrors.BadRequest("inStock must be a non-negative integer")
			}
			stock = n
		case "featured":
			b, ok := val.(bool)
			if !ok {
				return 0, apperrors.BadRequest("featured must be a boolean")
			}
			set[key] = b
		case "categoryId":
			str, _ := val.(string)
			cid, err := parseCategoryID(str)
			if err != nil {
				return 0, err
			}
			set[key] = cid
		default:
			str, ok := val.(string)
			if !ok {
				return 0, apperrors.BadRequest(key + " must be a string")
			}
			set[key] = str
		}
	}
	if len(set) == 0 && stock < 0 {
		return 0, ErrNoBulkFields
	}

	var updated int64
	if len(set) > 0 {
		n, err := s.products.BulkUpdate(ctx, oids, set)
		if err != nil {
			return 0, apperrors.ErrInternalServer.Wrap(err).WithMessage("Error bulk updating products")
		}
		updated = n
	}
	if stock >= 0 {
		var changed int64
		for _, oid := range oids {
			adj, err := s.ledger.Adjust(ctx, oid, "", stock, models.ReasonAdminAdjustment)
			if err != nil {
				s.logger.Warn("Bulk stock update skipped product", zap.String("product_id", oid.Hex()), zap.Error(err))
				continue
			}
			if adj.Change != 0 {
				changed++
			}
		}
		updated = max(updated, changed)
	}
	return updated, nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func (s *ProductService) upload(ctx context.Context, slot models.MediaSlot, in *media.UploadInput) (*media.Asset, error) {
	in.Folder = productFolder
	in.Video = slot.Video
	return s.media.Upload(ctx, *in)
}

func (s *ProductService) discard(ctx context.Context, id string, video bool) {
	if id == "" {
		return
	}
	if err := s.media.Delete(ctx, id, video); err != nil {
		s.logger.Warn("Failed to delete media file", zap.String("file_id", id), zap.Error(err))
	}
}

func (s *ProductService) discardAll(ctx context.Context, files []pendingDelete) {
	for _, f := range files {
		s.discard(ctx, f.id, f.video)
	}
}
