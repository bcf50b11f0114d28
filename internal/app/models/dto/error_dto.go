package dto

import "time"

// ErrorCode is the machine readable code of a failed response
type ErrorCode string

const (
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"
	ErrorCodeForbidden          ErrorCode = "FORBIDDEN"

	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeConflict              ErrorCode = "RES_004"

	// ErrorCodeValidationFailed marks a decoded request that breaks a rule
	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	// ErrorCodeBadRequest marks a body that could not be decoded at all
	ErrorCodeBadRequest ErrorCode = "BAD_REQUEST"

	ErrorCodeInternalServer ErrorCode = "SRV_001"
	ErrorCodeRateLimited    ErrorCode = "SRV_004"
)

// ErrorDetail is the error half of a failed response
type ErrorDetail struct {
	Code    ErrorCode   `json:"code" example:"RES_004"`
	Message string      `json:"message" example:"no seats available"`
	Field   string      `json:"field,omitempty" example:"courseId"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse is the envelope for failed responses
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{Code: code, Message: message}
}

func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

func NewErrorResponse(detail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Error:     detail,
		Timestamp: time.Now().UTC(),
	}
}

// FieldError is one broken binding rule
type FieldError struct {
	Field   string `json:"field" example:"totalSeats"`
	Message string `json:"message" example:"totalSeats must be at least 1"`
}

// NewFieldErrorDetail lists every broken rule under details. The first one
// also becomes the message and field of the detail itself.
func NewFieldErrorDetail(errs []FieldError) *ErrorDetail {
	detail := NewErrorDetail(ErrorCodeValidationFailed, "Invalid request")
	if len(errs) == 0 {
		return detail
	}
	detail.Message = errs[0].Message
	detail.Field = errs[0].Field
	detail.Details = errs
	return detail
}
