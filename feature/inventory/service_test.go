package inventory_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-connector/feature/inventory"
	"inventory-connector/feature/inventory/client"
	"inventory-connector/feature/inventory/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite DB shared across connections.
func setupTestDB(t *testing.T, dbName string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newService(t *testing.T, dbName string) (*inventory.Service, *gorm.DB) {
	db := setupTestDB(t, dbName)
	return inventory.NewService(db, zap.NewNop(), nil, ""), db
}

func newRemoteServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case client.InfoPath:
			_, _ = w.Write([]byte(`{"title": "Warehouse A", "description": "Main", "id": 5}`))
		case client.AggregatedPath:
			_, _ = w.Write([]byte(`{"itemCount": 0, "customFields": [], "aggregatedResults": []}`))
		case client.ItemsPath:
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCreateSource(t *testing.T) {
	svc, _ := newService(t, "svc_create")

	source, err := svc.CreateSource(inventory.CreateSourceInput{
		DisplayName: "Manual",
		APIURL:      "https://inventory.example/",
		APIToken:    " tok ",
	})
	assert.NoError(t, err)
	assert.Equal(t, "tok", source.APIToken)
	assert.Equal(t, "https://inventory.example", source.APIURL)
	assert.True(t, source.Active)
}

func TestCreateSourceEmptyToken(t *testing.T) {
	svc, _ := newService(t, "svc_empty_token")

	_, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "  "})
	assert.ErrorIs(t, err, inventory.ErrTokenRequired)
}

func TestCreateSourceDuplicateToken(t *testing.T) {
	svc, _ := newService(t, "svc_dup_token")

	_, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "tok"})
	assert.NoError(t, err)

	_, err = svc.CreateSource(inventory.CreateSourceInput{APIToken: "tok"})
	assert.ErrorIs(t, err, inventory.ErrDuplicateToken)
}

func TestImportInventory(t *testing.T) {
	srv := newRemoteServer()
	defer srv.Close()

	svc, db := newService(t, "svc_import")

	source, report, err := svc.ImportInventory(context.Background(), "tok", srv.URL, false)
	assert.NoError(t, err)
	assert.NotNil(t, report)
	assert.Equal(t, "Warehouse A", source.DisplayName)
	assert.Equal(t, "Main", source.Description)
	assert.Equal(t, 5, source.ExternalID)

	var stored models.Source
	assert.NoError(t, db.First(&stored, source.ID).Error)
	assert.NotNil(t, stored.LastSyncAt)
}

func TestImportInventoryInvalidToken(t *testing.T) {
	srv := newRemoteServer()
	defer srv.Close()

	svc, db := newService(t, "svc_import_badtoken")

	_, _, err := svc.ImportInventory(context.Background(), "wrong", srv.URL, false)
	assert.Error(t, err)

	// Nothing was created on a failed validation.
	var count int64
	db.Model(&models.Source{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestImportInventoryDuplicateToken(t *testing.T) {
	srv := newRemoteServer()
	defer srv.Close()

	svc, _ := newService(t, "svc_import_dup")

	_, _, err := svc.ImportInventory(context.Background(), "tok", srv.URL, false)
	assert.NoError(t, err)

	_, _, err = svc.ImportInventory(context.Background(), "tok", srv.URL, false)
	assert.ErrorIs(t, err, inventory.ErrDuplicateToken)
}

func TestSyncSourceNotFound(t *testing.T) {
	svc, _ := newService(t, "svc_sync_missing")

	_, err := svc.SyncSource(context.Background(), 999)
	assert.ErrorIs(t, err, inventory.ErrSourceNotFound)
}

func TestTestConnection(t *testing.T) {
	srv := newRemoteServer()
	defer srv.Close()

	svc, _ := newService(t, "svc_probe")
	source, err := svc.CreateSource(inventory.CreateSourceInput{
		APIToken: "tok",
		APIURL:   srv.URL,
	})
	assert.NoError(t, err)

	report, err := svc.TestConnection(context.Background(), source.ID)
	assert.NoError(t, err)
	assert.True(t, report.Reachable)
	assert.Len(t, report.Lines, 6)
}

func TestArchiveSource(t *testing.T) {
	svc, db := newService(t, "svc_archive")
	source, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "tok", APIURL: "https://x"})
	assert.NoError(t, err)

	assert.NoError(t, svc.ArchiveSource(source.ID))

	var stored models.Source
	assert.NoError(t, db.First(&stored, source.ID).Error)
	assert.False(t, stored.Active)

	// Archiving keeps the row, so listing still returns it.
	sources, err := svc.ListSources()
	assert.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestArchiveSourceNotFound(t *testing.T) {
	svc, _ := newService(t, "svc_archive_missing")
	assert.ErrorIs(t, svc.ArchiveSource(42), inventory.ErrSourceNotFound)
}
