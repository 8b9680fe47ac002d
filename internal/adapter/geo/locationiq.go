package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Temutjin2k/taxi-fleet-system/config"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

const locationIQBase = "https://us1.locationiq.com"

var ErrAddressNotFound = fmt.Errorf("address not found")

// LocationIQ переводит адрес подачи в координаты, когда диспетчер создал
// заказ без точки на карте. Без координат автоподбор водителя невозможен.
type LocationIQ struct {
	apiKey     string
	httpClient *http.Client
}

func NewLocationIQ(cfg config.GeoConfig) *LocationIQ {
	return &LocationIQ{
		apiKey:     cfg.LocationIQKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve возвращает координаты первого совпадения по адресу.
func (c *LocationIQ) Resolve(ctx context.Context, address string) (lat, lon float64, err error) {
	const op = "LocationIQ.Resolve"

	reqURL := fmt.Sprintf("%s/v1/search?key=%s&q=%s&format=json",
		locationIQBase, c.apiKey, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return 0, 0, wrap.Error(ctx, fmt.Errorf("%s: request failed: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return 0, 0, wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, resp.StatusCode))
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("%s: decode response: %w", op, err))
	}

	if len(results) == 0 {
		return 0, 0, wrap.Error(ctx, ErrAddressNotFound)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("%s: parse latitude: %w", op, err))
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, wrap.Error(ctx, fmt.Errorf("%s: parse longitude: %w", op, err))
	}

	return lat, lon, nil
}
