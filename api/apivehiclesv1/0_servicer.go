package apivehiclesv1

import (
	"context"

	"github.com/fulldump/mpgfinder/service"
)

const ContextServicerKey = "4c1d8a52-6f0e-4b0e-9a57-3f6e2b9d7c10"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}
