package inventory

import (
	"errors"

	"inventory-connector/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for inventory sources.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the inventory source routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sources")
	group.Get("/", h.HandleListSources)
	group.Post("/", h.HandleCreateSource)
	group.Post("/import", h.HandleImportInventory)
	group.Get("/:id", h.HandleGetSource)
	group.Delete("/:id", h.HandleArchiveSource)
	group.Post("/:id/sync", h.HandleSyncSource)
	group.Post("/:id/import", h.HandleImportItems)
	group.Get("/:id/test", h.HandleTestConnection)
}

// HandleListSources returns all configured sources.
// @Summary List Sources
// @Description List all inventory sources, archived ones included.
// @Tags sources
// @Produce json
// @Success 200 {array} models.Source "Sources"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sources [get]
func (h *Handler) HandleListSources(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	sources, err := h.service.ListSources()
	if err != nil {
		l.Error("Listing sources failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(sources)
}

// HandleGetSource returns one source by id.
// @Summary Get Source
// @Description Get a single inventory source.
// @Tags sources
// @Produce json
// @Param id path int true "Source ID"
// @Success 200 {object} models.Source "Source"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sources/{id} [get]
func (h *Handler) HandleGetSource(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}

	source, err := h.service.GetSource(uint(id))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(source)
}

// HandleCreateSource creates a source from user-supplied connection fields.
// @Summary Create Source
// @Description Create an inventory source without contacting the remote API.
// @Tags sources
// @Accept json
// @Produce json
// @Param source body CreateSourceInput true "Connection Fields"
// @Success 201 {object} models.Source "Created Source"
// @Failure 400 {object} map[string]string "Validation Error"
// @Failure 409 {object} map[string]string "Duplicate Token"
// @Router /sources [post]
func (h *Handler) HandleCreateSource(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var input CreateSourceInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	source, err := h.service.CreateSource(input)
	if err != nil {
		l.Warn("Source creation failed", zap.Error(err))
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(source)
}

type importRequest struct {
	APIToken    string `json:"api_token"`
	APIURL      string `json:"api_url"`
	InsecureTLS bool   `json:"insecure_tls"`
}

// HandleImportInventory validates a token against the remote info endpoint,
// creates the source and runs an immediate synchronization.
// @Summary Import Inventory
// @Description Validate an API token, create the source and sync it.
// @Tags sources
// @Accept json
// @Produce json
// @Param request body importRequest true "Token and URL"
// @Success 201 {object} map[string]interface{} "Source and Sync Report"
// @Failure 400 {object} map[string]string "Validation Error"
// @Failure 409 {object} map[string]string "Duplicate Token"
// @Router /sources/import [post]
func (h *Handler) HandleImportInventory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req importRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	source, report, err := h.service.ImportInventory(c.Context(), req.APIToken, req.APIURL, req.InsecureTLS)
	if err != nil {
		l.Warn("Inventory import failed", zap.Error(err))
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"source": source,
		"report": report,
	})
}

// HandleSyncSource runs a full synchronization pass for a source.
// @Summary Sync Source
// @Description Fetch remote metadata and rebuild the field schema and aggregates.
// @Tags sources
// @Produce json
// @Param id path int true "Source ID"
// @Success 200 {object} sync.Report "Sync Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 502 {object} map[string]string "Remote API Error"
// @Router /sources/{id}/sync [post]
func (h *Handler) HandleSyncSource(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.SyncSource(c.Context(), uint(id))
	if err != nil {
		l.Error("Source sync failed", zap.Int("source_id", id), zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(report)
}

// HandleImportItems fetches and reconciles a source's item records.
// @Summary Import Items
// @Description Fetch the item records and reconcile them into the store.
// @Tags sources
// @Produce json
// @Param id path int true "Source ID"
// @Success 200 {object} sync.Report "Import Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 502 {object} map[string]string "Remote API Error"
// @Router /sources/{id}/import [post]
func (h *Handler) HandleImportItems(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.ImportItems(c.Context(), uint(id))
	if err != nil {
		l.Error("Item import failed", zap.Int("source_id", id), zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(report)
}

// HandleTestConnection probes the remote endpoints and returns diagnostics.
// @Summary Test Connection
// @Description Probe each remote endpoint with and without the stored token.
// @Tags sources
// @Produce json
// @Param id path int true "Source ID"
// @Success 200 {object} client.ProbeReport "Probe Report"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sources/{id}/test [get]
func (h *Handler) HandleTestConnection(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}

	report, err := h.service.TestConnection(c.Context(), uint(id))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(report)
}

// HandleArchiveSource clears a source's active flag. Owned rows are kept.
// @Summary Archive Source
// @Description Soft-delete a source by marking it inactive.
// @Tags sources
// @Produce json
// @Param id path int true "Source ID"
// @Success 200 {object} map[string]string "Archived"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sources/{id} [delete]
func (h *Handler) HandleArchiveSource(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid source id",
		})
	}

	if err := h.service.ArchiveSource(uint(id)); err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{"status": "archived"})
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSourceNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrDuplicateToken):
		status = fiber.StatusConflict
	case errors.Is(err, ErrTokenRequired):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
