package usecase

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/auth"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/product"
	"github.com/fekuna/stockinator-service/internal/product/dto"
	"github.com/fekuna/stockinator-service/internal/realtime"
	"github.com/fekuna/stockinator-service/internal/search"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	indexName     = "products"
	maxImageBytes = 5 << 20
)

var minPrice = decimal.New(1, -2)

const indexMapping = `{
	"mappings": {
		"properties": {
			"business_id": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"price": { "type": "double" },
			"quantity": { "type": "integer" },
			"created_at": { "type": "date" }
		}
	}
}`

// SearchIndex is satisfied by *search.Client.
type SearchIndex interface {
	CreateIndex(ctx context.Context, name, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResult, error)
}

// ImageStore is satisfied by *storage.Client.
type ImageStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	Remove(ctx context.Context, paths ...string) error
	PublicURL(path string) string
}

type productUseCase struct {
	repo       product.Repository
	lists      *product.ListCache
	es         SearchIndex
	images     ImageStore
	publisher  realtime.Publisher
	logger     logger.ZapLogger
	threshold  int
	ensureOnce sync.Once
}

func NewProductUseCase(
	repo product.Repository,
	lists *product.ListCache,
	es SearchIndex,
	images ImageStore,
	pub realtime.Publisher,
	lowStockThreshold int,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:      repo,
		lists:     lists,
		es:        es,
		images:    images,
		publisher: pub,
		logger:    log,
		threshold: lowStockThreshold,
	}
}

type indexDoc struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput, image *dto.ImageUpload) (*model.Product, error) {
	user, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	name, err := productName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(input.Price, input.CostPrice); err != nil {
		return nil, err
	}

	now := time.Now()
	threshold := uc.threshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		BusinessID:        user.BusinessID,
		Name:              name,
		Description:       optional(input.Description),
		Price:             input.Price,
		CostPrice:         input.CostPrice,
		Quantity:          input.Quantity,
		LowStockThreshold: threshold,
		CreatedBy:         &user.UserID,
	}

	if image != nil {
		path, url, err := uc.uploadImage(ctx, user.BusinessID, image)
		if err != nil {
			return nil, err
		}
		p.ImagePath, p.ImageURL = &path, &url
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		if p.ImagePath != nil {
			uc.removeImage(*p.ImagePath)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	uc.emit(ctx, realtime.EventInsert, p.BusinessID, p, nil)
	go uc.syncToElastic(context.Background(), p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	p, err := uc.repo.FindByID(ctx, user.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.ErrProductNotFound
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, 0, apperror.ErrNoBusiness
	}
	filters.BusinessID = user.BusinessID

	if filters.IsPlainList() {
		return uc.listCached(ctx, filters)
	}

	if filters.SearchQuery != "" && !filters.LowStock && uc.es != nil {
		products, total, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	return uc.repo.FindAll(ctx, filters)
}

func (uc *productUseCase) listCached(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	all, ok, err := uc.lists.Get(ctx, filters.BusinessID)
	if err != nil {
		uc.logger.Warn("product list cache read failed", zap.Error(err))
	}
	if !ok {
		all, _, err = uc.repo.FindAll(ctx, &dto.ProductFilters{BusinessID: filters.BusinessID})
		if err != nil {
			return nil, 0, err
		}
		if err := uc.lists.Set(ctx, filters.BusinessID, all); err != nil {
			uc.logger.Warn("product list cache write failed", zap.Error(err))
		}
	}
	return paginate(all, filters.Page, filters.PageSize), len(all), nil
}

// emit patches this instance's view of the list cache before the change is
// published, so the writer's next plain list already reflects it. The
// listener applies the same event again; patches are idempotent.
func (uc *productUseCase) emit(ctx context.Context, typ realtime.EventType, businessID string, record, old interface{}) {
	ev, err := realtime.NewEvent(typ, realtime.TableProducts, businessID, record, old)
	if err != nil {
		uc.logger.Error("failed to build product event", zap.Error(err))
		if err := uc.lists.Drop(ctx, businessID); err != nil {
			uc.logger.Warn("product list cache drop failed", zap.Error(err))
		}
		return
	}
	if err := uc.lists.HandleEvent(ctx, ev); err != nil {
		uc.logger.Warn("product list cache patch failed", zap.String("business_id", businessID), zap.Error(err))
	}
	realtime.Send(ctx, uc.publisher, uc.logger, ev)
}

func paginate(all []model.Product, page, pageSize int) []model.Product {
	if pageSize <= 0 {
		return all
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []model.Product{}
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// searchElastic ranks with the index, then loads the rows so stock levels
// are current.
func (uc *productUseCase) searchElastic(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":     filters.SearchQuery,
							"fields":    []string{"name^3", "description"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"business_id": filters.BusinessID}},
				},
			},
		},
		"_source": false,
	}
	if filters.PageSize > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		q["from"] = (page - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}

	rows, err := uc.repo.FindByIDs(ctx, filters.BusinessID, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]model.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) ListLowStock(ctx context.Context) ([]model.Product, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	return uc.repo.FindLowStock(ctx, user.BusinessID)
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput, image *dto.ImageUpload) (*model.Product, error) {
	user, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	name, err := productName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(input.Price, input.CostPrice); err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByID(ctx, user.BusinessID, input.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.ErrProductNotFound
	}
	old := *p

	p.Name = name
	p.Description = optional(input.Description)
	p.Price = input.Price
	p.CostPrice = input.CostPrice
	p.Quantity = input.Quantity
	if input.LowStockThreshold != nil {
		p.LowStockThreshold = *input.LowStockThreshold
	}
	if input.RemoveImage {
		p.ImagePath, p.ImageURL = nil, nil
	}

	var uploaded string
	if image != nil {
		path, url, err := uc.uploadImage(ctx, user.BusinessID, image)
		if err != nil {
			return nil, err
		}
		uploaded = path
		p.ImagePath, p.ImageURL = &path, &url
	}

	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		if uploaded != "" {
			uc.removeImage(uploaded)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	// The old object goes only once the row no longer points at it.
	if old.ImagePath != nil && (p.ImagePath == nil || *p.ImagePath != *old.ImagePath) {
		uc.removeImage(*old.ImagePath)
	}

	uc.emit(ctx, realtime.EventUpdate, p.BusinessID, p, old)
	go uc.syncToElastic(context.Background(), p)
	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	user, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	p, err := uc.repo.FindByID(ctx, user.BusinessID, id)
	if err != nil {
		return err
	}
	if p == nil {
		return apperror.ErrProductNotFound
	}

	if err := uc.repo.Delete(ctx, user.BusinessID, id); err != nil {
		return err
	}
	if p.ImagePath != nil {
		uc.removeImage(*p.ImagePath)
	}

	uc.emit(ctx, realtime.EventDelete, p.BusinessID, nil, p)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *productUseCase) uploadImage(ctx context.Context, businessID string, image *dto.ImageUpload) (string, string, error) {
	if !strings.HasPrefix(image.ContentType, "image/") || image.Size > maxImageBytes {
		return "", "", apperror.ErrInvalidInput
	}
	if uc.images == nil {
		return "", "", apperror.ErrImageUpload
	}

	ext := strings.ToLower(filepath.Ext(image.Filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(image.ContentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	path := fmt.Sprintf("%s/%s%s", businessID, uuid.New().String(), ext)

	if err := uc.images.Upload(ctx, path, image.ContentType, image.Body); err != nil {
		uc.logger.Error("image upload failed", zap.String("path", path), zap.Error(err))
		return "", "", apperror.ErrImageUpload.Wrap(err)
	}
	return path, uc.images.PublicURL(path), nil
}

// removeImage is best effort; a leftover object only costs storage.
func (uc *productUseCase) removeImage(path string) {
	if uc.images == nil {
		return
	}
	if err := uc.images.Remove(context.Background(), path); err != nil {
		uc.logger.Warn("failed to remove product image", zap.String("path", path), zap.Error(err))
	}
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	uc.ensureOnce.Do(func() {
		if err := uc.es.CreateIndex(ctx, indexName, indexMapping); err != nil {
			uc.logger.Error("failed to create product index", zap.Error(err))
		}
	})

	price, _ := p.Price.Float64()
	doc := indexDoc{
		ID:         p.ID,
		BusinessID: p.BusinessID,
		Name:       p.Name,
		Price:      price,
		Quantity:   p.Quantity,
		CreatedAt:  p.CreatedAt,
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if err := uc.es.Index(ctx, indexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.Error(err))
	}
}

// productName trims the name and checks the stored length.
func productName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < 1 || n > 120 {
		return "", apperror.ErrInvalidInput
	}
	return name, nil
}

func validateAmounts(price, cost decimal.Decimal) error {
	if price.LessThan(minPrice) || cost.IsNegative() {
		return apperror.ErrInvalidInput
	}
	return nil
}

func requireOwner(ctx context.Context) (*auth.UserContext, error) {
	user := auth.GetUser(ctx)
	if !user.IsMember() {
		return nil, apperror.ErrNoBusiness
	}
	if !user.IsOwner() {
		return nil, apperror.ErrOwnerOnly
	}
	return user, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
