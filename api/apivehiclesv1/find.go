package apivehiclesv1

import (
	"context"

	"github.com/fulldump/mpgfinder/service"
)

func find(ctx context.Context, input *service.FindInput) (*service.FindOutput, error) {
	return GetServicer(ctx).Find(input)
}
