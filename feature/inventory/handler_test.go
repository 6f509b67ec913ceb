package inventory_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"inventory-connector/feature/inventory"
	"inventory-connector/feature/inventory/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newTestApp(t *testing.T, dbName string) (*fiber.App, *inventory.Service) {
	svc, _ := newService(t, dbName)
	app := fiber.New()
	inventory.NewHandler(svc).RegisterRoutes(app)
	return app, svc
}

func TestHandleCreateSource(t *testing.T) {
	app, _ := newTestApp(t, "handler_create")

	body, _ := json.Marshal(inventory.CreateSourceInput{
		DisplayName: "Warehouse",
		APIURL:      "https://inventory.example",
		APIToken:    "tok",
	})
	req := httptest.NewRequest("POST", "/sources", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.Source
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Warehouse", created.DisplayName)
	assert.NotZero(t, created.ID)
}

func TestHandleCreateSourceDuplicateToken(t *testing.T) {
	app, svc := newTestApp(t, "handler_dup")

	_, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "tok", APIURL: "https://x"})
	assert.NoError(t, err)

	body, _ := json.Marshal(inventory.CreateSourceInput{APIToken: "tok", APIURL: "https://x"})
	req := httptest.NewRequest("POST", "/sources", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestHandleCreateSourceEmptyToken(t *testing.T) {
	app, _ := newTestApp(t, "handler_empty")

	body, _ := json.Marshal(inventory.CreateSourceInput{APIURL: "https://x"})
	req := httptest.NewRequest("POST", "/sources", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetSource(t *testing.T) {
	app, svc := newTestApp(t, "handler_get")

	source, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "tok", APIURL: "https://x"})
	assert.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/sources/1", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got models.Source
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, source.ID, got.ID)
}

func TestHandleGetSourceNotFound(t *testing.T) {
	app, _ := newTestApp(t, "handler_get_missing")

	resp, err := app.Test(httptest.NewRequest("GET", "/sources/99", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleListSources(t *testing.T) {
	app, svc := newTestApp(t, "handler_list")

	_, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "a", APIURL: "https://x"})
	assert.NoError(t, err)
	_, err = svc.CreateSource(inventory.CreateSourceInput{APIToken: "b", APIURL: "https://y"})
	assert.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/sources/", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got []models.Source
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestHandleArchiveSource(t *testing.T) {
	app, svc := newTestApp(t, "handler_archive")

	source, err := svc.CreateSource(inventory.CreateSourceInput{APIToken: "tok", APIURL: "https://x"})
	assert.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/sources/1", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	got, err := svc.GetSource(source.ID)
	assert.NoError(t, err)
	assert.False(t, got.Active)
}

func TestHandleSyncSourceNotFound(t *testing.T) {
	app, _ := newTestApp(t, "handler_sync_missing")

	resp, err := app.Test(httptest.NewRequest("POST", "/sources/42/sync", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleImportInventory(t *testing.T) {
	srv := newRemoteServer()
	defer srv.Close()

	app, _ := newTestApp(t, "handler_import")

	body, _ := json.Marshal(map[string]any{
		"api_token": "tok",
		"api_url":   srv.URL,
	})
	req := httptest.NewRequest("POST", "/sources/import", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 15000)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var got struct {
		Source models.Source `json:"source"`
		Report struct {
			ExecutionTime string `json:"execution_time"`
		} `json:"report"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Warehouse A", got.Source.DisplayName)
	assert.NotEmpty(t, got.Report.ExecutionTime)
}
