package apivehiclesv1

import (
	"context"

	"github.com/fulldump/mpgfinder/catalog"
)

func sitemap(ctx context.Context) (*catalog.Sitemap, error) {
	return GetServicer(ctx).Sitemap()
}
