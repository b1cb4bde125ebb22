package service

import (
	"context"
	"errors"
	"io"

	"github.com/fulldump/mpgfinder/catalog"
)

var ErrDatasetNotLoaded = errors.New("dataset not loaded")

type Servicer interface {
	Find(input *FindInput) (*FindOutput, error)
	Export(w io.Writer, input *FindInput) error
	GetVehicle(ctx context.Context, slug string) (*VehicleOutput, error)
	GetDataset() (*DatasetOutput, error)
	ReloadDataset(raw []byte) (*DatasetOutput, error)
	Sitemap() (*catalog.Sitemap, error)
}
