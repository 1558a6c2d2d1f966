// Package weather fetches current conditions for one location from the
// National Weather Service API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"plant_telemetry/internal/models"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultWindSpeed = 5.0
	maxErrorBody     = 512
)

// Client talks to api.weather.gov (or a compatible base URL).
type Client struct {
	base      string
	userAgent string
	h         *http.Client
	now       func() time.Time
}

func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:      strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		h:         &http.Client{Timeout: timeout},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type pointsResponse struct {
	Properties struct {
		Forecast            string `json:"forecast"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type quantity struct {
	Value *float64 `json:"value"`
}

type forecastPeriod struct {
	Temperature                *float64 `json:"temperature"`
	TemperatureUnit            string   `json:"temperatureUnit"`
	RelativeHumidity           quantity `json:"relativeHumidity"`
	ProbabilityOfPrecipitation quantity `json:"probabilityOfPrecipitation"`
	WindSpeed                  string   `json:"windSpeed"`
	ShortForecast              string   `json:"shortForecast"`
	DetailedForecast           string   `json:"detailedForecast"`
}

type forecastResponse struct {
	Properties struct {
		Periods []forecastPeriod `json:"periods"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
		} `json:"properties"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		Temperature      quantity `json:"temperature"` // °C
		RelativeHumidity quantity `json:"relativeHumidity"`
	} `json:"properties"`
}

// Fetch resolves the grid point for lat/lon, reads the first forecast period
// and, when available, refines temperature and humidity from the nearest
// station's latest observation. Observation failures are ignored; grid or
// forecast failures are returned.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	var points pointsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/points/%.4f,%.4f", c.base, lat, lon), &points); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("resolve grid point: %w", err)
	}
	if points.Properties.Forecast == "" {
		return models.WeatherSnapshot{}, fmt.Errorf("resolve grid point: no forecast url")
	}

	var forecast forecastResponse
	if err := c.getJSON(ctx, points.Properties.Forecast, &forecast); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("fetch forecast: %w", err)
	}
	if len(forecast.Properties.Periods) == 0 {
		return models.WeatherSnapshot{}, fmt.Errorf("fetch forecast: no periods")
	}
	period := forecast.Properties.Periods[0]

	snap := models.WeatherSnapshot{
		Temperature:      forecastFahrenheit(period),
		Humidity:         period.RelativeHumidity.Value,
		PrecipitationPct: period.ProbabilityOfPrecipitation.Value,
		WindSpeed:        models.Float(ParseWindSpeed(period.WindSpeed)),
		ForecastText:     period.ShortForecast,
		Description:      period.DetailedForecast,
		FetchedAt:        c.now(),
	}
	if snap.PrecipitationPct == nil {
		snap.PrecipitationPct = models.Float(0)
	}

	if obs, ok := c.latestObservation(ctx, points.Properties.ObservationStations); ok {
		if v := obs.Properties.Temperature.Value; v != nil {
			snap.Temperature = models.Float(round1(*v*9/5 + 32))
		}
		if v := obs.Properties.RelativeHumidity.Value; v != nil {
			snap.Humidity = models.Float(round1(*v))
		}
	}
	return snap, nil
}

func (c *Client) latestObservation(ctx context.Context, stationsURL string) (observationResponse, bool) {
	if stationsURL == "" {
		return observationResponse{}, false
	}
	var stations stationsResponse
	if err := c.getJSON(ctx, stationsURL, &stations); err != nil || len(stations.Features) == 0 {
		return observationResponse{}, false
	}
	id := stations.Features[0].Properties.StationIdentifier
	if id == "" {
		return observationResponse{}, false
	}
	var obs observationResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/stations/%s/observations/latest", c.base, id), &obs); err != nil {
		return observationResponse{}, false
	}
	return obs, true
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/geo+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.h.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func forecastFahrenheit(p forecastPeriod) *float64 {
	if p.Temperature == nil {
		return nil
	}
	t := *p.Temperature
	if strings.EqualFold(p.TemperatureUnit, "C") {
		t = t*9/5 + 32
	}
	return models.Float(round1(t))
}

var windNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseWindSpeed reads NWS wind strings such as "5 to 10 mph" (averaged),
// "8 mph" and "Calm". Unparseable input yields 5 mph.
func ParseWindSpeed(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "calm", "none":
		return 0
	}
	nums := windNumber.FindAllString(s, 2)
	switch len(nums) {
	case 0:
		return defaultWindSpeed
	case 1:
		v, _ := strconv.ParseFloat(nums[0], 64)
		return round1(v)
	default:
		a, _ := strconv.ParseFloat(nums[0], 64)
		b, _ := strconv.ParseFloat(nums[1], 64)
		return round1((a + b) / 2)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
