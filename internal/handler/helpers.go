package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/apierror"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindForm is bindAndValidate for multipart / urlencoded forms.
func bindForm(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid form: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto status codes. Anything unrecognised
// is attached to the context and rendered as a bare 500 by ErrorHandler.
func respondError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	var integrity *service.IntegrityError

	switch {
	case errors.Is(err, service.ErrBatchTooLarge):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode(apierror.CodeBatchTooLarge, err.Error()))
	case errors.Is(err, service.ErrInvalidProvenance):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode(apierror.CodeInvalidProvenance, err.Error()))
	case errors.Is(err, service.ErrEmptyCSV):
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeEmptyFile, err.Error()))
	case errors.Is(err, service.ErrMalformedCSV):
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeMalformedFile, err.Error()))
	case errors.Is(err, service.ErrBatchInProgress):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeBatchInProgress, err.Error()))
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, apierror.WithCode(apierror.CodeStoreUnavailable, "database unavailable, retry the batch later"))
	case errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrResultNotFound):
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNotFound, err.Error()))
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeConflict, conflict.Message))
	case errors.As(err, &integrity):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeIntegrity, integrity.Message))
	default:
		_ = c.Error(err)
	}
}
