package apivehiclesv1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/mpgfinder/service"
)

func getVehicle(ctx context.Context) (*service.VehicleOutput, error) {

	s := GetServicer(ctx)
	target := box.GetUrlParameter(ctx, "slug")

	vehicle, err := s.GetVehicle(ctx, target)
	if err != nil {
		return nil, err
	}

	return vehicle, nil
}
