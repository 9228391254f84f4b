package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/httputil"
	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/product"
	"github.com/fekuna/stockinator-service/internal/product/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

// CreateProduct accepts JSON, or multipart form data with an optional
// "image" file part.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBind(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	image, closeImage, err := formImage(c)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	defer closeImage()

	p, err := h.uc.CreateProduct(c.Request.Context(), &input, image)
	if err != nil {
		h.logger.Debug("create product failed", zap.Error(err))
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	var filters dto.ProductFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.BindError(c, err)
		return
	}
	filters.Page, filters.PageSize = httputil.Pagination(c)

	products, total, err := h.uc.ListProducts(c.Request.Context(), &filters)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Page{
		Items:    products,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	})
}

func (h *ProductHandler) ListLowStock(c *gin.Context) {
	products, err := h.uc.ListLowStock(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBind(&input); err != nil {
		httputil.BindError(c, err)
		return
	}
	input.ID = c.Param("id")

	image, closeImage, err := formImage(c)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	defer closeImage()

	p, err := h.uc.UpdateProduct(c.Request.Context(), &input, image)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		httputil.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func formImage(c *gin.Context) (*dto.ImageUpload, func(), error) {
	noop := func() {}
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, noop, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperror.ErrInvalidInput.Wrap(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperror.ErrInvalidInput.Wrap(err)
	}
	return &dto.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}
