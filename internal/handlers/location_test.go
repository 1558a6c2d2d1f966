package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"plant_telemetry/internal/models"
	"plant_telemetry/internal/service"
)

func TestSetLocation(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantLat  float64
	}{
		{name: "stored", body: `{"latitude":40.71,"longitude":-74.01}`, wantCode: http.StatusOK, wantLat: 40.71},
		{name: "equator is a valid latitude", body: `{"latitude":0,"longitude":10}`, wantCode: http.StatusOK},
		{name: "missing longitude", body: `{"latitude":40.71}`, wantCode: http.StatusBadRequest},
		{name: "malformed json", body: `{"latitude":"north"}`, wantCode: http.StatusBadRequest},
		{name: "out of range", body: `{"latitude":95,"longitude":0}`, err: service.ErrInvalidLocation, wantCode: http.StatusBadRequest},
		{name: "user gone", body: `{"latitude":1,"longitude":1}`, err: service.ErrUserNotFound, wantCode: http.StatusNotFound},
		{name: "storage failure", body: `{"latitude":1,"longitude":1}`, err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			locs := &mockLocations{err: tc.err, loc: models.Location{Latitude: tc.wantLat}}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 4}, Locations: locs})

			w := do(r, http.MethodPut, "/api/v1/user/location", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantCode == http.StatusOK {
				if locs.lastUserID != 4 || locs.lastLat != tc.wantLat {
					t.Fatalf("forwarded user=%d lat=%v", locs.lastUserID, locs.lastLat)
				}
				if !strings.Contains(w.Body.String(), `"latitude"`) {
					t.Fatalf("location missing from body: %s", w.Body.String())
				}
			}
		})
	}
}

func TestGetLocation(t *testing.T) {
	locs := &mockLocations{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 4}, Locations: locs})

	if w := do(r, http.MethodGet, "/api/v1/user/location", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unset location: status=%d", w.Code)
	}

	locs.stored = &models.Location{Latitude: 47.6, Longitude: -122.3}
	w := do(r, http.MethodGet, "/api/v1/user/location", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "47.6") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	locs.err = errors.New("db down")
	if w := do(r, http.MethodGet, "/api/v1/user/location", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("storage failure: status=%d", w.Code)
	}
}
