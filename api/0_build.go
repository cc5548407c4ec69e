package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/overlaydb/service"
)

func Build(s service.Servicer, version string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		injectServicer(s),
	)

	v1.Resource("/collections").
		WithActions(
			box.Get(listCollections),
			box.Post(createCollection),
		)

	v1.Resource("/collections/{collectionName}").
		WithActions(
			box.Get(getCollection),
			box.ActionPost(insert),
			box.ActionPost(remove),
			box.ActionPost(createIndex),
			box.ActionPost(dropCollection),
			box.ActionPost(openCursor),
		)

	v1.Resource("/cursors").
		WithActions(
			box.Get(listCursors),
		)

	v1.Resource("/cursors/{cursorId}").
		WithActions(
			box.Get(getCursor),
			box.ActionPost(move),
			box.ActionPost(setOverlay),
			box.ActionPost(read),
			box.ActionPost(deactivate),
			box.ActionPost(requery),
			box.ActionPost(closeCursor).WithName("close"),
		)

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check the documentation",
			}
		}))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}))

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "OverlayDB"
	spec.Info.Description = "Query JSON collections through cursors that accept per row cell overlays."
	spec.Info.Version = version
	b.Handle("GET", "/openapi.json", func(r *http.Request) any {

		spec.Servers = []boxopenapi.Server{
			{
				Url: "http://" + r.Host,
			},
		}

		return spec
	})

	return b
}

const contextServicerKey = "2f7c7a52-8b1e-4f43-9a55-1c5f0d0b7e11"

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(context.WithValue(ctx, contextServicerKey, s))
		}
	}
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(contextServicerKey).(service.Servicer)
}
