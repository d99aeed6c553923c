package endpoints

import (
	"context"

	"github.com/ColinToft/JogCoach/internal/util/mapdata"
	svc "github.com/ColinToft/JogCoach/pkg/mapdata"
	"github.com/go-kit/kit/endpoint"
)

type Set struct {
	GetMapDataEndpoint endpoint.Endpoint
}

func NewEndpointSet(s svc.Service) Set {
	return Set{
		GetMapDataEndpoint: MakeGetMapDataEndpoint(s),
	}
}

func MakeGetMapDataEndpoint(s svc.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(GetMapDataRequest)
		data, err := s.GetMapData(ctx, req.Lat, req.Lon, req.Radius)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

// GetMapData lets a Set built from client endpoints be used as a Service.
func (s Set) GetMapData(ctx context.Context, lat, lon, radius float64) (mapdata.MapData, error) {
	resp, err := s.GetMapDataEndpoint(ctx, GetMapDataRequest{Lat: lat, Lon: lon, Radius: radius})
	if err != nil {
		return mapdata.MapData{}, err
	}
	return resp.(mapdata.MapData), nil
}
