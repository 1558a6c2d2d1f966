package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindSpeed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"5 to 10 mph", 7.5},
		{"5-10 mph", 7.5},
		{"8 mph", 8},
		{"Calm", 0},
		{"", 0},
		{"breezy", 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseWindSpeed(tt.in), "input %q", tt.in)
	}
}

func newNWS(t *testing.T, withObservation bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/points/40.7128,-74.0060", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "user agent required", http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `{"properties":{"forecast":"%[1]s/gridpoints/OKX/33,35/forecast","observationStations":"%[1]s/gridpoints/OKX/33,35/stations"}}`, srv.URL)
	})
	mux.HandleFunc("/gridpoints/OKX/33,35/forecast", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"periods":[{"temperature":68,"temperatureUnit":"F",
			"relativeHumidity":{"value":55},"probabilityOfPrecipitation":{"value":null},
			"windSpeed":"5 to 10 mph","shortForecast":"Sunny","detailedForecast":"Sunny, high near 70."}]}}`)
	})
	mux.HandleFunc("/gridpoints/OKX/33,35/stations", func(w http.ResponseWriter, r *http.Request) {
		if !withObservation {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"features":[{"properties":{"stationIdentifier":"KNYC"}}]}`)
	})
	mux.HandleFunc("/stations/KNYC/observations/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"temperature":{"value":25},"relativeHumidity":{"value":48.26}}}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_PrefersObservation(t *testing.T) {
	srv := newNWS(t, true)
	c := New(srv.URL, "plant-telemetry-test", time.Second)

	snap, err := c.Fetch(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)

	require.NotNil(t, snap.Temperature)
	assert.Equal(t, 77.0, *snap.Temperature)
	assert.Equal(t, 48.3, *snap.Humidity)
	assert.Equal(t, 0.0, *snap.PrecipitationPct)
	assert.Equal(t, 7.5, *snap.WindSpeed)
	assert.Equal(t, "Sunny", snap.ForecastText)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetch_ForecastOnlyWhenStationsFail(t *testing.T) {
	srv := newNWS(t, false)
	c := New(srv.URL, "plant-telemetry-test", time.Second)

	snap, err := c.Fetch(context.Background(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, 68.0, *snap.Temperature)
	assert.Equal(t, 55.0, *snap.Humidity)
}

func TestFetch_GridFailureIsReturned(t *testing.T) {
	srv := newNWS(t, true)
	c := New(srv.URL, "", time.Second)

	_, err := c.Fetch(context.Background(), 40.7128, -74.0060)
	assert.ErrorContains(t, err, "resolve grid point")
}
