package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/mpgfinder/api/apivehiclesv1"
	"github.com/fulldump/mpgfinder/catalog"
	"github.com/fulldump/mpgfinder/dataset"
	"github.com/fulldump/mpgfinder/query"
	"github.com/fulldump/mpgfinder/service"
	"github.com/fulldump/mpgfinder/slug"
)

var ErrUnavailable = errors.New("temporary unavailable")

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

// Statuser is anything with the opening/operating/closing lifecycle.
type Statuser interface {
	GetStatus() string
}

func InterceptorUnavailable(s Statuser) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := s.GetStatus()
			if status == catalog.StatusOpening {
				box.SetError(ctx, fmt.Errorf("%w: opening", ErrUnavailable))
				return
			}
			if status == catalog.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: closing", ErrUnavailable))
				return
			}
			next(ctx)
		}
	}
}

// errorStatus maps domain errors to an HTTP status and a description.
func errorStatus(ctx context.Context, err error) (int, string) {

	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError

	switch {
	case err == box.ErrResourceNotFound:
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String())
	case err == box.ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)
	case errors.As(err, &syntaxError), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "Malformed JSON"
	case errors.As(err, &typeError):
		return http.StatusBadRequest, "Unexpected JSON type"
	case errors.Is(err, slug.ErrSlugNotFound):
		return http.StatusNotFound, "no vehicle has this slug"
	case errors.Is(err, slug.ErrSlugAmbiguous):
		return http.StatusConflict, "several vehicles share this slug"
	case errors.Is(err, query.ErrBadSort), errors.Is(err, query.ErrBadWhere):
		return http.StatusBadRequest, "Invalid query"
	case errors.Is(err, dataset.ErrEmptyDataset):
		return http.StatusBadRequest, "Dataset has no header row"
	case errors.Is(err, apivehiclesv1.ErrDatasetTooLarge):
		return http.StatusRequestEntityTooLarge, "Dataset too large"
	case errors.Is(err, service.ErrDatasetNotLoaded), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "Service temporary unavailable, try again later"
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}

		status, description := errorStatus(ctx, err)

		w := box.GetResponse(ctx)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		PrettyError{
			Message:     err.Error(),
			Description: description,
		}.MarshalTo(w)
	}
}
