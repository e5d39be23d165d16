package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

var validate = newValidator()

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// On failure the error response has already been written.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		h.renderErrorMessage(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.renderErrorMessage(w, r, http.StatusBadRequest, "invalid request")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: common.ErrValidation.Error(), Fields: fields})
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrExportDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrWeakCredential),
		errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRevoked):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// renderError writes err with the status it maps to. Internal errors are
// logged and hidden from the caller.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.renderErrorStatus(w, r, statusFor(err), err)
}

func (h *Handler) renderErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	switch {
	case status == http.StatusNotFound:
		msg = "not found"
	case errors.Is(err, common.ErrRevoked):
		msg = common.ErrRevoked.Error()
	case errors.Is(err, common.ErrInvalidToken):
		msg = common.ErrInvalidToken.Error()
	case status >= http.StatusInternalServerError && status != http.StatusNotImplemented:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	h.renderErrorMessage(w, r, status, msg)
}

func (h *Handler) renderErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}
