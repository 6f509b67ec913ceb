package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-connector/core/jsonkey"
	"inventory-connector/core/storage"
	"inventory-connector/feature/inventory/client"
	"inventory-connector/feature/inventory/models"
	"inventory-connector/feature/inventory/sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service errors surfaced to callers. Bulk-rebuild constraint violations
// never reach here; these cover user-initiated single-record operations.
var (
	ErrTokenRequired  = errors.New("API token cannot be empty")
	ErrDuplicateToken = errors.New("a source with this API token already exists")
	ErrSourceNotFound = errors.New("inventory source not found")
)

// Service handles inventory source operations.
type Service struct {
	db           *gorm.DB
	logger       *zap.Logger
	orchestrator *sync.Orchestrator
}

// NewService creates a new inventory service. storageClient may be nil to
// disable payload snapshots.
func NewService(db *gorm.DB, logger *zap.Logger, storageClient storage.Client, bucket string) *Service {
	return &Service{
		db:           db,
		logger:       logger,
		orchestrator: sync.New(db, logger, storageClient, bucket),
	}
}

// CreateSourceInput carries the user-supplied connection fields.
type CreateSourceInput struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	APIURL      string `json:"api_url"`
	APIToken    string `json:"api_token"`
	InsecureTLS bool   `json:"insecure_tls"`
}

// CreateSource creates a source from user input. A duplicate or empty
// token is a user-visible error.
func (s *Service) CreateSource(input CreateSourceInput) (*models.Source, error) {
	token := strings.TrimSpace(input.APIToken)
	if token == "" {
		return nil, ErrTokenRequired
	}
	if err := s.ensureTokenUnused(token); err != nil {
		return nil, err
	}

	source := models.Source{
		DisplayName: input.DisplayName,
		Description: input.Description,
		APIURL:      strings.TrimRight(input.APIURL, "/"),
		APIToken:    token,
		InsecureTLS: input.InsecureTLS,
		Active:      true,
	}
	if source.DisplayName == "" {
		source.DisplayName = "Imported Inventory"
	}
	if err := s.db.Create(&source).Error; err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return &source, nil
}

// ImportInventory is the wizard flow: validate the token against the remote
// info endpoint, create the source from the returned metadata, and run an
// immediate synchronization followed by an item import.
func (s *Service) ImportInventory(ctx context.Context, token, apiURL string, insecureTLS bool) (*models.Source, *sync.Report, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrTokenRequired
	}
	if err := s.ensureTokenUnused(token); err != nil {
		return nil, nil, err
	}

	api := client.New(apiURL, token, insecureTLS, s.logger)
	info, res := api.FetchInfo(ctx)
	if !res.OK() {
		return nil, nil, fmt.Errorf("invalid API token or URL: %w", res.Failure())
	}

	source, err := s.CreateSource(CreateSourceInput{
		DisplayName: jsonkey.String(info, "title", ""),
		Description: jsonkey.String(info, "description", ""),
		APIURL:      apiURL,
		APIToken:    token,
		InsecureTLS: insecureTLS,
	})
	if err != nil {
		return nil, nil, err
	}

	report, err := s.orchestrator.Sync(ctx, source)
	if err != nil {
		return source, nil, err
	}

	importReport, err := s.orchestrator.ImportItems(ctx, source)
	if err != nil {
		// The source and its schema exist at this point; surface the item
		// fetch failure without undoing the sync.
		report.Errors = append(report.Errors, err.Error())
		return source, report, nil
	}
	report.Imported = importReport.Imported
	report.Updated = importReport.Updated
	report.Warnings = append(report.Warnings, importReport.Warnings...)
	report.Errors = append(report.Errors, importReport.Errors...)

	return source, report, nil
}

// SyncSource runs a full synchronization pass for the source.
func (s *Service) SyncSource(ctx context.Context, id uint) (*sync.Report, error) {
	source, err := s.GetSource(id)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Sync(ctx, source)
}

// ImportItems fetches and reconciles the source's item records.
func (s *Service) ImportItems(ctx context.Context, id uint) (*sync.Report, error) {
	source, err := s.GetSource(id)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.ImportItems(ctx, source)
}

// TestConnection probes the remote endpoints and returns a diagnostic
// report. It never fails on unreachable endpoints; the report says so.
func (s *Service) TestConnection(ctx context.Context, id uint) (*client.ProbeReport, error) {
	source, err := s.GetSource(id)
	if err != nil {
		return nil, err
	}
	api := client.New(source.APIURL, source.APIToken, source.InsecureTLS, s.logger)
	report := api.Probe(ctx)
	return &report, nil
}

// ArchiveSource soft-deletes a source by clearing its active flag. Owned
// rows are kept; only a hard delete cascades.
func (s *Service) ArchiveSource(id uint) error {
	source, err := s.GetSource(id)
	if err != nil {
		return err
	}
	return s.db.Model(source).Update("active", false).Error
}

// GetSource loads one source by id.
func (s *Service) GetSource(id uint) (*models.Source, error) {
	var source models.Source
	if err := s.db.First(&source, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}
	return &source, nil
}

// ListSources returns all sources, archived ones included.
func (s *Service) ListSources() ([]models.Source, error) {
	var sources []models.Source
	if err := s.db.Order("id asc").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *Service) ensureTokenUnused(token string) error {
	var count int64
	if err := s.db.Model(&models.Source{}).Where("api_token = ?", token).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateToken
	}
	return nil
}
