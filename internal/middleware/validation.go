package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/registrar/internal/app/models/dto"
)

// RegisterValidatorTagNames makes validation errors report JSON field names
// instead of Go field names.
func RegisterValidatorTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// HandleValidationError writes a 400 for a failed bind. Broken field rules
// are listed under error.details; a body that cannot be decoded is reported
// as BAD_REQUEST.
func HandleValidationError(c *gin.Context, err error) {
	var (
		detail    *dto.ErrorDetail
		fieldErrs validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &fieldErrs):
		list := make([]dto.FieldError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			list = append(list, dto.FieldError{Field: fe.Field(), Message: formatValidationError(fe)})
		}
		detail = dto.NewFieldErrorDetail(list)
	case errors.As(err, &typeErr):
		detail = dto.NewErrorDetail(dto.ErrorCodeValidationFailed, typeErr.Field+" has the wrong type").
			WithField(typeErr.Field)
	case errors.As(err, &syntaxErr):
		detail = dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Malformed JSON body")
	default:
		detail = dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid request body")
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
