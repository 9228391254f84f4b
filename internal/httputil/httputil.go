// Package httputil holds the response helpers shared by every handler.
package httputil

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"sync"

	"github.com/fekuna/stockinator-service/internal/apperror"
	"github.com/fekuna/stockinator-service/internal/i18n"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error renders err as {"error": {...}} and attaches it to the gin
// context so the request logger records the cause.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorBody{
			Code:    apperror.ErrInvalidInput.Code,
			Message: localize(c, apperror.ErrInvalidInput),
			Fields:  fields,
		}})
		return
	}

	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.ErrInternal
	}
	c.JSON(appErr.Kind.HTTPStatus(), gin.H{"error": ErrorBody{
		Code:    appErr.Code,
		Message: localize(c, appErr),
	}})
}

// BindError wraps a request binding failure so it renders as invalid input.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		Error(c, err)
		return
	}
	Error(c, apperror.ErrInvalidInput.Wrap(err))
}

func localize(c *gin.Context, e *apperror.Error) string {
	return i18n.Localize(c.GetHeader("Accept-Language"), e.Code, e.Message, e.Data)
}

type Page struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Pagination reads page and page_size query parameters with bounds.
func Pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

var registerOnce sync.Once

// RegisterValidators teaches gin's validator to compare decimal amounts
// so tags like gte=0.01 work on decimal.Decimal fields, and adds the
// notblank tag for names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}
