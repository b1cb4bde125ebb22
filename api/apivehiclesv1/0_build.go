package apivehiclesv1

import (
	"github.com/fulldump/box"
)

func BuildV1Vehicles(v1 *box.R) *box.R {

	vehicles := v1.Resource("/vehicles").
		WithActions(
			box.ActionPost(find),
			box.ActionPost(export),
		)

	v1.Resource("/vehicles/{slug}").
		WithActions(
			box.Get(getVehicle),
		)

	v1.Resource("/sitemap").
		WithActions(
			box.Get(sitemap),
		)

	return vehicles
}

func BuildV1Dataset(v1 *box.R) *box.R {

	return v1.Resource("/dataset").
		WithActions(
			box.Get(getDataset),
			box.ActionPost(reload),
		)
}
