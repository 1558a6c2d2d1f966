package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"plant_telemetry/internal/models"
)

func newLocationRepo(t *testing.T) (*LocationSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewLocationSQLite(db), mock
}

func TestLocationSQLite_Set(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		wantOK     bool
		wantErr    string
	}{
		{
			name: "updated",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updateLocationSQL)).
					WithArgs(40.7, -74.0, at, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantOK: true,
		},
		{
			name: "unknown user",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updateLocationSQL)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "exec error",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(updateLocationSQL)).
					WillReturnError(errors.New("disk I/O error"))
			},
			wantErr: "update location for user 3",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newLocationRepo(t)
			tt.mockExpect(mock)

			ok, err := repo.Set(context.Background(), 3, models.Location{Latitude: 40.7, Longitude: -74, UpdatedAt: at})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestLocationSQLite_Latest(t *testing.T) {
	repo, mock := newLocationRepo(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectLatestLocationSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"latitude", "longitude", "location_updated_at"}).
			AddRow(47.6, -122.3, at))

	got, err := repo.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Latitude != 47.6 || got.Longitude != -122.3 || !got.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected location: %+v", got)
	}
}

func TestLocationSQLite_GetUnset(t *testing.T) {
	repo, mock := newLocationRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectLocationSQL)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"latitude", "longitude", "location_updated_at"}))

	got, err := repo.Get(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil location, got %+v", got)
	}
}
