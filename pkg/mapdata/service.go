package mapdata

import (
	"context"

	"github.com/ColinToft/JogCoach/internal/util/mapdata"
)

// Service returns the highway network around a point. radius is in metres.
type Service interface {
	GetMapData(ctx context.Context, lat, lon, radius float64) (mapdata.MapData, error)
}
