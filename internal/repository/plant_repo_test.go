package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"plant_telemetry/internal/models"
)

var plantCols = []string{"id", "user_id", "name", "sensor_id", "created_at"}

func newPlantRepo(t *testing.T) (*PlantSQLite, sqlmock.Sqlmock) {
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
	return NewPlantSQLite(db), mock
}

func TestPlantSQLite_Create(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		plant      models.Plant
		mockExpect func(sqlmock.Sqlmock)
		wantID     int64
		wantErr    string
	}{
		{
			name:  "with sensor",
			plant: models.Plant{UserID: 2, Name: "Fern", SensorID: " pi-01 ", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertPlantSQL)).
					WithArgs(2, "Fern", "pi-01", created).
					WillReturnResult(sqlmock.NewResult(11, 1))
			},
			wantID: 11,
		},
		{
			name:  "sensor stored as null",
			plant: models.Plant{UserID: 2, Name: "Basil", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertPlantSQL)).
					WithArgs(2, "Basil", nil, created).
					WillReturnResult(sqlmock.NewResult(12, 1))
			},
			wantID: 12,
		},
		{
			name:  "duplicate sensor",
			plant: models.Plant{UserID: 2, Name: "Ivy", SensorID: "pi-01", CreatedAt: created},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertPlantSQL)).
					WillReturnError(errors.New("UNIQUE constraint failed"))
			},
			wantErr: "insert plant",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newPlantRepo(t)
			tt.mockExpect(mock)

			id, err := repo.Create(context.Background(), tt.plant)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.wantID {
				t.Fatalf("id: want %d, got %d", tt.wantID, id)
			}
		})
	}
}

func TestPlantSQLite_Get(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newPlantRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectPlantByIDSQL)).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(plantCols).AddRow(4, 1, "Fern", nil, created))

		p, err := repo.Get(context.Background(), 4)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if p == nil || p.ID != 4 || p.Name != "Fern" || p.SensorID != "" {
			t.Fatalf("unexpected plant: %+v", p)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newPlantRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectPlantByIDSQL)).
			WithArgs(int64(5)).
			WillReturnError(sql.ErrNoRows)

		p, err := repo.Get(context.Background(), 5)
		if err != nil || p != nil {
			t.Fatalf("want (nil, nil), got (%+v, %v)", p, err)
		}
	})
}

func TestPlantSQLite_GetBySensor_TrimsInput(t *testing.T) {
	repo, mock := newPlantRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectPlantBySensor)).
		WithArgs("pi-02").
		WillReturnRows(sqlmock.NewRows(plantCols).AddRow(7, 1, "Mint", "pi-02", time.Now()))

	p, err := repo.GetBySensor(context.Background(), "  pi-02\n")
	if err != nil || p == nil || p.ID != 7 {
		t.Fatalf("unexpected result: %+v, %v", p, err)
	}
}

func TestPlantSQLite_ListByUser(t *testing.T) {
	repo, mock := newPlantRepo(t)
	rows := sqlmock.NewRows(plantCols).
		AddRow(1, 3, "Fern", "a", time.Now()).
		AddRow(2, 3, "Mint", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(selectPlantsByUserSQL)).WithArgs(3).WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Fern" || got[1].SensorID != "" {
		t.Fatalf("unexpected plants: %+v", got)
	}
}

func TestPlantSQLite_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"existing", 1, true},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newPlantRepo(t)
			mock.ExpectExec(regexp.QuoteMeta(deletePlantSQL)).
				WithArgs(int64(8)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Delete(context.Background(), 8)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if got != tt.want {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
		})
	}
}
