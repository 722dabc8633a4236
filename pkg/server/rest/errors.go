package rest

import (
	"errors"
	"fmt"
	"net/http"

	"pathsync/pkg/server"

	"github.com/go-chi/render"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ErrResponse model info
//
//	@Description	error response
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // always "error"
	Message       string   `json:"message"`         // user-level message
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     statusError,
		Message:        "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     statusError,
		Message:        "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// ErrChi renders a service error. server.Error messages are meant for users and are passed through.
func ErrChi(err error) render.Renderer {
	code := getStatusCode(err)
	msg := err.Error()
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		switch code {
		case http.StatusNotFound:
			msg = "Resource not found."
		default:
			msg = "Internal server error."
		}
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     statusError,
		Message:        msg,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	} else {
		switch ierr.Code() {
		case server.ErrInternalServerError:
			return http.StatusInternalServerError
		case server.ErrNotFound:
			return http.StatusNotFound
		case server.ErrConflict:
			return http.StatusConflict
		case server.ErrBadParamInput:
			return http.StatusBadRequest
		case server.ErrUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
	}
	return errs
}
