package apivehiclesv1

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/mpgfinder/service"
)

const maxDatasetSize = 64 << 20

// reload replaces the dataset with the raw CSV in the request body.
func reload(ctx context.Context, r *http.Request) (*service.DatasetOutput, error) {

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDatasetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(raw) > maxDatasetSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrDatasetTooLarge, maxDatasetSize)
	}

	return GetServicer(ctx).ReloadDataset(raw)
}
