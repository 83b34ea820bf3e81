package inventory

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE devices (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			slugs      TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("creating devices table: %v", err)
	}

	return NewSQLiteRepository(db)
}

func TestSQLiteRepositoryCRUD(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	device := &Device{
		ID:    "32:153289",
		Name:  "Bathroom Thermostat",
		Slugs: []string{"thermostat", "hygro"},
	}
	if err := repo.Create(ctx, device); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	got, err := repo.GetByID(ctx, "32:153289")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Name != device.Name || !reflect.DeepEqual(got.Slugs, device.Slugs) {
		t.Errorf("GetByID() = %+v, want %+v", got, device)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set on create")
	}

	got.Name = "Hall Thermostat"
	got.Slugs = []string{"thermostat"}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	updated, err := repo.GetByID(ctx, "32:153289")
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if updated.Name != "Hall Thermostat" || len(updated.Slugs) != 1 {
		t.Errorf("Update() not persisted: %+v", updated)
	}

	if err := repo.Delete(ctx, "32:153289"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "32:153289"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepositoryCreateDuplicate(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	device := &Device{ID: "01:123456", Name: "Hygrometer"}
	if err := repo.Create(ctx, device); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := repo.Create(ctx, device); !errors.Is(err, ErrDeviceExists) {
		t.Errorf("Create() duplicate error = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepositoryListOrdersByName(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, d := range []*Device{
		{ID: "b", Name: "Zeta Sensor"},
		{ID: "a", Name: "Alpha Sensor"},
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create(%s) error: %v", d.ID, err)
		}
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(devices) != 2 || devices[0].Name != "Alpha Sensor" {
		t.Errorf("List() = %+v, want alphabetical by name", devices)
	}
}

func TestSQLiteRepositoryUpdateMissing(t *testing.T) {
	repo := openTestRepo(t)

	err := repo.Update(context.Background(), &Device{ID: "ghost", Name: "Ghost"})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Update() error = %v, want ErrDeviceNotFound", err)
	}
}
