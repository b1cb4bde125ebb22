package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
	"github.com/fulldump/box/boxopenapi"

	"github.com/fulldump/mpgfinder/api/apivehiclesv1"
	"github.com/fulldump/mpgfinder/service"
)

func Build(s service.Servicer, status Statuser, version string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		injectServicer(s),
	)

	// vehicles need a dataset, the dataset itself can be uploaded while opening
	apivehiclesv1.BuildV1Vehicles(v1).
		WithInterceptors(
			InterceptorUnavailable(status),
		)
	apivehiclesv1.BuildV1Dataset(v1)

	b.Resource("/v1/*").
		WithActions(box.AnyMethod(func(w http.ResponseWriter) interface{} {
			w.WriteHeader(http.StatusNotImplemented)
			return PrettyError{
				Message:     "not implemented",
				Description: "this endpoint does not exist, please check /openapi.json",
			}
		}))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}))

	spec := boxopenapi.Spec(b)
	spec.Info.Title = "mpgfinder"
	spec.Info.Description = "Browse vehicle fuel economy records by make, model and year."
	spec.Info.Contact = &boxopenapi.Contact{
		Url: "https://github.com/fulldump/mpgfinder/issues/new",
	}
	b.Handle("GET", "/openapi.json", func(r *http.Request) any {

		spec.Servers = []boxopenapi.Server{
			{
				Url: "https://" + r.Host,
			},
			{
				Url: "http://" + r.Host,
			},
		}

		return spec
	})

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apivehiclesv1.SetServicer(ctx, s))
		}
	}
}
