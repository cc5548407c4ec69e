package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/overlaydb/service"
)

func openCursor(ctx context.Context, w http.ResponseWriter, input *service.CursorOptions) (*service.SessionStatus, error) {

	s := GetServicer(ctx)
	collectionName := box.GetUrlParameter(ctx, "collectionName")

	session, err := s.OpenCursor(collectionName, input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return session.Status(), nil
}

func listCursors(ctx context.Context) ([]*service.SessionStatus, error) {

	s := GetServicer(ctx)

	result := []*service.SessionStatus{}
	for _, session := range s.ListCursors() {
		result = append(result, session.Status())
	}

	return result, nil
}

func getSession(ctx context.Context) (*service.Session, error) {
	return GetServicer(ctx).GetCursor(box.GetUrlParameter(ctx, "cursorId"))
}

func getCursor(ctx context.Context) (*service.SessionStatus, error) {

	session, err := getSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.Status(), nil
}

type moveRequest struct {
	Position int `json:"position"`
}

type moveResponse struct {
	OnRow bool `json:"on_row"`
	*service.SessionStatus
}

func move(ctx context.Context, input *moveRequest) (*moveResponse, error) {

	session, err := getSession(ctx)
	if err != nil {
		return nil, err
	}

	onRow := session.Move(input.Position)

	return &moveResponse{
		OnRow:         onRow,
		SessionStatus: session.Status(),
	}, nil
}

type setOverlayRequest struct {
	Column int         `json:"column"`
	Value  interface{} `json:"value"`
}

func setOverlay(ctx context.Context, w http.ResponseWriter, input *setOverlayRequest) error {

	session, err := getSession(ctx)
	if err != nil {
		return err
	}

	err = session.SetOverlay(input.Column, input.Value)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func read(ctx context.Context) ([]service.Cell, error) {

	session, err := getSession(ctx)
	if err != nil {
		return nil, err
	}

	return session.Read()
}

func deactivate(ctx context.Context) (*service.SessionStatus, error) {

	session, err := getSession(ctx)
	if err != nil {
		return nil, err
	}

	session.Deactivate()

	return session.Status(), nil
}

func requery(ctx context.Context) (*service.SessionStatus, error) {

	session, err := getSession(ctx)
	if err != nil {
		return nil, err
	}

	err = session.Requery()
	if err != nil {
		return nil, err
	}

	return session.Status(), nil
}

func closeCursor(ctx context.Context, w http.ResponseWriter) error {

	s := GetServicer(ctx)

	err := s.CloseCursor(box.GetUrlParameter(ctx, "cursorId"))
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
