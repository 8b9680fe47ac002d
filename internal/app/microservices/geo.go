package microservices

import (
	"github.com/Temutjin2k/taxi-fleet-system/config"
	"github.com/Temutjin2k/taxi-fleet-system/internal/adapter/geo"
	"github.com/Temutjin2k/taxi-fleet-system/internal/service/dispatch"
)

// geocoderFor возвращает nil, когда ключ LocationIQ не задан.
func geocoderFor(cfg config.Config) dispatch.Geocoder {
	if cfg.Geo.LocationIQKey == "" {
		return nil
	}
	return geo.NewLocationIQ(cfg.Geo)
}
