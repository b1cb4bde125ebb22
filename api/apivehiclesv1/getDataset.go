package apivehiclesv1

import (
	"context"

	"github.com/fulldump/mpgfinder/service"
)

func getDataset(ctx context.Context) (*service.DatasetOutput, error) {
	return GetServicer(ctx).GetDataset()
}
