package server

import (
	"errors"
	"net/http"
	"strings"

	analyticsdomain "github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/appstate"
	billingdomain "github.com/stackbundle/partnerhub/internal/billing/domain"
	checkoutdomain "github.com/stackbundle/partnerhub/internal/checkout/domain"
	"github.com/stackbundle/partnerhub/internal/discord/creds"
	emailverifydomain "github.com/stackbundle/partnerhub/internal/emailverify/domain"
	"github.com/gin-gonic/gin"
	magiclinkdomain "github.com/stackbundle/partnerhub/internal/magiclink/domain"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	subscriptiondomain "github.com/stackbundle/partnerhub/internal/subscription/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, magiclinkdomain.ErrInvalidToken),
		errors.Is(err, magiclinkdomain.ErrTokenExpired),
		errors.Is(err, magiclinkdomain.ErrTokenConsumed):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: errorType(err, "unauthorized"),
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, billingdomain.ErrNotConnected):
		return http.StatusConflict, errorPayload{
			Type:    "not_connected",
			Message: "partner has no connected payment account",
		}
	case errors.Is(err, checkoutdomain.ErrPromoInactive):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "promo_inactive",
			Message: "promotion code is inactive",
		}
	case errors.Is(err, checkoutdomain.ErrPromoNotApplicable):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "promo_not_applicable",
			Message: "promotion code does not apply to this interval",
		}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func errorType(err error, fallback string) string {
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, partnerdomain.ErrInvalidSlug),
		errors.Is(err, partnerdomain.ErrInvalidEmail),
		errors.Is(err, partnerdomain.ErrInvalidHost),
		errors.Is(err, partnerdomain.ErrInvalidCurrency),
		errors.Is(err, billingdomain.ErrInvalidInterval),
		errors.Is(err, billingdomain.ErrInvalidAmount),
		errors.Is(err, billingdomain.ErrUnsupportedCurrency),
		errors.Is(err, subscriptiondomain.ErrInvalidEmail),
		errors.Is(err, subscriptiondomain.ErrNoPlatformPrice),
		errors.Is(err, magiclinkdomain.ErrInvalidEmail),
		errors.Is(err, emailverifydomain.ErrNoEmailDomain),
		errors.Is(err, analyticsdomain.ErrInvalidDate),
		errors.Is(err, analyticsdomain.ErrInvalidSource):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, partnerdomain.ErrNotFound),
		errors.Is(err, partnerdomain.ErrPromoNotFound),
		errors.Is(err, appstate.ErrNotFound),
		errors.Is(err, creds.ErrNoCredentials),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	switch code {
	case "unsupported_currency":
		return "currency"
	case "no_email_domain":
		return "email_domain"
	case "no_platform_price":
		return "interval"
	}
	return ""
}
