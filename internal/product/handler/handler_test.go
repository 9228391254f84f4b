package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/fekuna/stockinator-service/internal/product/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	created   *dto.CreateProductInput
	image     *dto.ImageUpload
	imageData string
	filters   *dto.ProductFilters
	err       error
}

func (f *fakeUseCase) CreateProduct(_ context.Context, input *dto.CreateProductInput, image *dto.ImageUpload) (*model.Product, error) {
	f.created = input
	f.image = image
	if image != nil {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(image.Body)
		f.imageData = buf.String()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Product{BaseModel: model.BaseModel{ID: "p1"}, Name: input.Name, Price: input.Price}, nil
}

func (f *fakeUseCase) GetProduct(context.Context, string) (*model.Product, error) {
	return nil, apperror.ErrProductNotFound
}

func (f *fakeUseCase) ListProducts(_ context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	f.filters = filters
	return []model.Product{}, 0, nil
}

func (f *fakeUseCase) ListLowStock(context.Context) ([]model.Product, error) { return nil, nil }

func (f *fakeUseCase) UpdateProduct(context.Context, *dto.UpdateProductInput, *dto.ImageUpload) (*model.Product, error) {
	return nil, nil
}

func (f *fakeUseCase) DeleteProduct(context.Context, string) error { return nil }

func newRouter(uc *fakeUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	httputil.RegisterValidators()
	h := NewProductHandler(uc, logger.NewNop())
	r := gin.New()
	r.POST("/api/products", h.CreateProduct)
	r.GET("/api/products", h.ListProducts)
	r.GET("/api/products/:id", h.GetProduct)
	return r
}

func TestCreateProduct_RejectsPriceBelowMinimum(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Soap","price":"0.001","cost_price":"0","quantity":3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, uc.created, "usecase must not be called")

	var body struct {
		Error httputil.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body.Error.Code)
	assert.Equal(t, "gte", body.Error.Fields["Price"])
}

func TestCreateProduct_RejectsBlankName(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"   ","price":"5"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, uc.created)

	var body struct {
		Error httputil.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "notblank", body.Error.Fields["Name"])
}

func TestCreateProduct_RejectsNegativeQuantity(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Soap","price":"10","quantity":-1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, uc.created)
}

func TestCreateProduct_JSON(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Soap","price":"12.50","cost_price":"8","quantity":3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, uc.created)
	assert.Equal(t, "12.5", uc.created.Price.String())
	assert.Nil(t, uc.image)
}

func TestCreateProduct_MultipartWithImage(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Soap"))
	require.NoError(t, mw.WriteField("price", "12.50"))
	require.NoError(t, mw.WriteField("quantity", "4"))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="soap.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, uc.image)
	assert.Equal(t, "soap.png", uc.image.Filename)
	assert.Equal(t, "image/png", uc.image.ContentType)
	assert.Equal(t, "png-bytes", uc.imageData)
	assert.Equal(t, 4, uc.created.Quantity)
}

func TestCreateProduct_MapsUseCaseErrors(t *testing.T) {
	uc := &fakeUseCase{err: apperror.ErrOwnerOnly}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Soap","price":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListProducts_BindsFiltersAndPaging(t *testing.T) {
	uc := &fakeUseCase{}
	r := newRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/products?search=soap&low_stock=true&sort_by=name&page=2&page_size=500", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc.filters)
	assert.Equal(t, "soap", uc.filters.SearchQuery)
	assert.True(t, uc.filters.LowStock)
	assert.Equal(t, "name", uc.filters.SortBy)
	assert.Equal(t, 2, uc.filters.Page)
	assert.Equal(t, 100, uc.filters.PageSize)
}

func TestGetProduct_NotFound(t *testing.T) {
	r := newRouter(&fakeUseCase{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
