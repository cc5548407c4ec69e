package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/overlaydb/cursor"
	"github.com/fulldump/overlaydb/database"
	"github.com/fulldump/overlaydb/overlay"
	"github.com/fulldump/overlaydb/service"
)

var ErrUnavailable = errors.New("temporary unavailable")
var ErrBadRequest = errors.New("bad request")

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

type errorMapping struct {
	target      error
	status      int
	description string
}

var errorMappings = []errorMapping{
	{overlay.ErrInvalidArgument, http.StatusBadRequest, "overlay value is not valid"},
	{overlay.ErrIndexOutOfRange, http.StatusBadRequest, "column is out of range"},
	{overlay.ErrConfiguration, http.StatusBadRequest, "cursor can not be created with these options"},
	{overlay.ErrFormat, http.StatusUnprocessableEntity, "overlay can not be read with the column type"},
	{cursor.ErrColumnOutOfRange, http.StatusBadRequest, "column is out of range"},
	{cursor.ErrConversion, http.StatusUnprocessableEntity, "value can not be read with the column type"},
	{cursor.ErrNoRow, http.StatusConflict, "cursor is not positioned on a row"},
	{cursor.ErrClosed, http.StatusConflict, "cursor is closed"},
	{cursor.ErrDeactivated, http.StatusConflict, "cursor is deactivated, requery it first"},
	{database.ErrCollectionNotFound, http.StatusNotFound, "collection not found"},
	{database.ErrCollectionName, http.StatusBadRequest, "collection name is not valid"},
	{database.ErrCollectionAlreadyExists, http.StatusConflict, "collection already exists"},
	{service.ErrorCursorNotFound, http.StatusNotFound, "cursor not found"},
	{ErrBadRequest, http.StatusBadRequest, "request can not be processed"},
	{ErrUnavailable, http.StatusServiceUnavailable, "database is not operating"},
}

func writePrettyError(w http.ResponseWriter, status int, err error, description string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(PrettyError{
		Message:     err.Error(),
		Description: description,
	})
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		if err == box.ErrResourceNotFound {
			writePrettyError(w, http.StatusNotFound, err,
				fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String()))
			return
		}

		if err == box.ErrMethodNotAllowed {
			writePrettyError(w, http.StatusMethodNotAllowed, err,
				fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method))
			return
		}

		var syntaxError *json.SyntaxError
		var typeError *json.UnmarshalTypeError
		var streamError *jsontext.SyntacticError
		if errors.As(err, &syntaxError) || errors.As(err, &typeError) || errors.As(err, &streamError) {
			writePrettyError(w, http.StatusBadRequest, err, "Malformed JSON")
			return
		}

		for _, mapping := range errorMappings {
			if errors.Is(err, mapping.target) {
				writePrettyError(w, mapping.status, err, mapping.description)
				return
			}
		}

		writePrettyError(w, http.StatusInternalServerError, err, "Unexpected error")
	}
}
