package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	apperrors "storefront-service/common/errors"
	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type productFixture struct {
	svc      *ProductService
	products *fakeProductRepo
	logs     *fakeLogRepo
	store    *fakeMediaStore
}

func newProductFixture(ps ...*models.Product) *productFixture {
	products := newFakeProductRepo(ps...)
	logs := &fakeLogRepo{}
	store := &fakeMediaStore{}
	ledger := NewInventoryLedger(products, logs, zap.NewNop())
	return &productFixture{
		svc:      NewProductService(products, ledger, store, zap.NewNop()),
		products: products,
		logs:     logs,
		store:    store,
	}
}

func fileUpload(name string) MediaChange {
	return MediaChange{Upload: &media.UploadInput{Body: strings.NewReader("data"), Filename: name}}
}

func textValue(v string) MediaChange {
	return MediaChange{Value: &v}
}

func intPtr(n int) *int { return &n }

func TestCreateProduct_DefaultsAndOptionalUploadFailure(t *testing.T) {
	f := newProductFixture()
	f.store.failField = "hover.png"

	p, err := f.svc.CreateProduct(context.Background(), ProductForm{
		Name:     "Candle",
		Price:    12.5,
		InStock:  intPtr(8),
		Variants: `[{"name":"Small","price":10,"inStock":3}]`,
	}, map[string]MediaChange{
		"image":      fileUpload("main.png"),
		"hoverImage": fileUpload("hover.png"),
		"image3":     textValue("https://cdn.example.com/third.jpg"),
	})

	require.NoError(t, err)
	assert.Equal(t, models.DefaultMinStock, p.MinStock)
	assert.Equal(t, 8, p.InStock)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, models.DefaultMinStock, p.Variants[0].MinStock)
	assert.True(t, strings.HasPrefix(p.ImageID, productFolder+"/"))
	assert.Empty(t, p.HoverImage)
	assert.Equal(t, "https://cdn.example.com/third.jpg", p.Image3)
	assert.Empty(t, p.Image3ID)
}

func TestCreateProduct_PrimaryUploadFailureIsFatal(t *testing.T) {
	f := newProductFixture()
	f.store.failField = "main.png"

	_, err := f.svc.CreateProduct(context.Background(), ProductForm{Name: "Candle"}, map[string]MediaChange{
		"image": fileUpload("main.png"),
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.As(err).Code)
	count, _ := f.products.Count(context.Background(), repository.ProductFilter{})
	assert.Zero(t, count)
}

func TestCreateProduct_RejectsBadVariants(t *testing.T) {
	f := newProductFixture()
	_, err := f.svc.CreateProduct(context.Background(), ProductForm{Name: "Candle", Variants: "{not json"}, nil)
	assert.True(t, errors.Is(err, ErrInvalidVariants))
}

func TestUpdateProduct_MediaSlotCases(t *testing.T) {
	existing := &models.Product{
		Name:         "Rug",
		Image:        "https://res.cloudinary.com/demo/rug.jpg",
		ImageID:      "img-1",
		ThumbnailURL: "https://res.cloudinary.com/demo/rug-thumb.jpg",
		HoverImage:   "https://res.cloudinary.com/demo/hover.jpg",
		HoverImageID: "hover-1",
		Image3:       "https://res.cloudinary.com/demo/three.jpg",
		Image3ID:     "three-1",
		Image4:       "https://res.cloudinary.com/demo/four.jpg",
		Image4ID:     "four-1",
		Video:        "https://res.cloudinary.com/demo/v.mp4",
		VideoID:      "video-1",
	}
	f := newProductFixture(existing)

	updated, err := f.svc.UpdateProduct(context.Background(), existing.ID.Hex(), ProductForm{Name: "Rug"}, map[string]MediaChange{
		"image":      fileUpload("new.png"),
		"hoverImage": textValue(""),
		"image3":     textValue("https://images.example.org/three.jpg"),
		"image4":     textValue("https://res.cloudinary.com/demo/four.jpg"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, "img-1", updated.ImageID)
	assert.Empty(t, updated.ThumbnailURL)
	assert.Empty(t, updated.HoverImage)
	assert.Empty(t, updated.HoverImageID)
	assert.Equal(t, "https://images.example.org/three.jpg", updated.Image3)
	assert.Empty(t, updated.Image3ID)
	assert.Equal(t, "four-1", updated.Image4ID)
	assert.Equal(t, "video-1", updated.VideoID)
	assert.ElementsMatch(t, []string{"img-1", "hover-1", "three-1"}, f.store.deleted)
}

func TestUpdateProduct_StockEditsAreLogged(t *testing.T) {
	existing := &models.Product{
		Name:     "Tee",
		InStock:  10,
		Variants: []models.Variant{{Name: "M", InStock: 2}, {Name: "L", InStock: 4}},
	}
	f := newProductFixture(existing)

	updated, err := f.svc.UpdateProduct(context.Background(), existing.ID.Hex(), ProductForm{
		Name:     "Tee",
		InStock:  intPtr(4),
		MinStock: intPtr(3),
		Variants: `[{"name":"M","inStock":5},{"name":"L","inStock":4},{"name":"XL","inStock":1}]`,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, updated.InStock)
	assert.Equal(t, 3, updated.MinStock)
	assert.Equal(t, 5, f.products.stock(existing.ID, "M"))
	assert.Equal(t, 4, f.products.stock(existing.ID, "L"))
	assert.Equal(t, 1, f.products.stock(existing.ID, "XL"))

	edits := f.logs.byReason(models.ReasonProductEdit)
	require.Len(t, edits, 2)
	changes := map[string]int{}
	for _, e := range edits {
		changes[e.VariantName] = e.Change
	}
	assert.Equal(t, map[string]int{"": -6, "M": 3}, changes)
}

// interleavingProductRepo runs during just before the edit is written, the
// way a checkout can land between the edit's read and its write.
type interleavingProductRepo struct {
	*fakeProductRepo
	during func()
}

func (r *interleavingProductRepo) UpdateWithVariants(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}, variants []models.Variant) error {
	r.during()
	return r.fakeProductRepo.UpdateWithVariants(ctx, id, updates, variants)
}

func TestUpdateProduct_KeepsConcurrentStockChanges(t *testing.T) {
	existing := &models.Product{
		Name:     "Tee",
		Variants: []models.Variant{{Name: "Small", InStock: 5}, {Name: "Large", InStock: 2}},
	}
	products := newFakeProductRepo(existing)
	logs := &fakeLogRepo{}
	ledger := NewInventoryLedger(products, logs, zap.NewNop())
	repo := &interleavingProductRepo{fakeProductRepo: products, during: func() {
		ledger.Decrement(context.Background(), []StockItem{{ProductRef: existing.ID.Hex(), VariantName: "Small", Quantity: 2}}, nil)
	}}
	svc := NewProductService(repo, ledger, &fakeMediaStore{}, zap.NewNop())

	updated, err := svc.UpdateProduct(context.Background(), existing.ID.Hex(), ProductForm{
		Name:     "Tee v2",
		Variants: `[{"name":"Small","inStock":5,"price":12},{"name":"Large","inStock":2}]`,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Tee v2", updated.Name)
	assert.Equal(t, 3, products.stock(existing.ID, "Small"))
	assert.Equal(t, 2, products.stock(existing.ID, "Large"))
	require.Len(t, logs.byReason(models.ReasonOrderPlaced), 1)
	assert.Empty(t, logs.byReason(models.ReasonProductEdit))
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newProductFixture()
	_, err := f.svc.UpdateProduct(context.Background(), "nope", ProductForm{Name: "x"}, nil)
	assert.True(t, errors.Is(err, ErrProductMissing))
}

func TestDeleteProduct_RemovesAllMedia(t *testing.T) {
	existing := &models.Product{Name: "Lamp", ImageID: "a", Image4ID: "b", Video3ID: "c"}
	f := newProductFixture(existing)

	require.NoError(t, f.svc.DeleteProduct(context.Background(), existing.ID.Hex()))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, f.store.deleted)
	_, err := f.svc.GetProduct(context.Background(), existing.ID.Hex())
	assert.True(t, errors.Is(err, ErrProductMissing))
}

func TestBulkUpdate(t *testing.T) {
	a := &models.Product{Name: "A", InStock: 1}
	b := &models.Product{Name: "B", InStock: 9}
	f := newProductFixture(a, b)
	ctx := context.Background()
	ids := []string{a.ID.Hex(), b.ID.Hex()}

	_, err := f.svc.BulkUpdate(ctx, nil, map[string]interface{}{"featured": true})
	assert.True(t, errors.Is(err, ErrNoBulkIDs))

	_, err = f.svc.BulkUpdate(ctx, ids, map[string]interface{}{"price": 1.0})
	assert.True(t, errors.Is(err, ErrNoBulkFields))

	n, err := f.svc.BulkUpdate(ctx, ids, map[string]interface{}{"featured": true, "inStock": float64(5), "price": 1.0})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, p := range []*models.Product{a, b} {
		got, err := f.svc.GetProduct(ctx, p.ID.Hex())
		require.NoError(t, err)
		assert.True(t, got.Featured)
		assert.Equal(t, 5, got.InStock)
		assert.Zero(t, got.Price)
	}
	assert.Len(t, f.logs.byReason(models.ReasonAdminAdjustment), 2)
}

func TestListProducts_Pagination(t *testing.T) {
	featured := true
	f := newProductFixture(
		&models.Product{Name: "A", Featured: true},
		&models.Product{Name: "B", Featured: true},
		&models.Product{Name: "C"},
	)

	page, total, err := f.svc.ListProducts(context.Background(), ListProductsParams{Page: 2, PerPage: 1, Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	all, total, err := f.svc.ListProducts(context.Background(), ListProductsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)
}
