package sync

import (
	"context"
	"time"

	"inventory-connector/core/jsonkey"
	"inventory-connector/core/storage"
	"inventory-connector/core/utils"
	"inventory-connector/feature/inventory/client"
	"inventory-connector/feature/inventory/models"
	"inventory-connector/feature/inventory/reconcile"
	"inventory-connector/feature/inventory/schema"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Orchestrator drives synchronization passes for inventory sources. One
// invocation runs to completion on the calling goroutine; there is no
// background scheduling and no concurrent sync of the same source.
type Orchestrator struct {
	db      *gorm.DB
	logger  *zap.Logger
	storage storage.Client
	bucket  string
}

// New creates an orchestrator. storageClient may be nil, which disables
// payload snapshots.
func New(db *gorm.DB, logger *zap.Logger, storageClient storage.Client, bucket string) *Orchestrator {
	return &Orchestrator{db: db, logger: logger, storage: storageClient, bucket: bucket}
}

// Report summarizes one sync or import pass.
type Report struct {
	DefinitionsCreated int      `json:"definitions_created"`
	AggregatesCreated  int      `json:"aggregates_created"`
	ItemCount          int      `json:"item_count"`
	Imported           int      `json:"imported"`
	Updated            int      `json:"updated"`
	Warnings           []string `json:"warnings,omitempty"`
	// Errors holds soft failures: steps that failed without aborting the
	// pass (e.g. the aggregated fetch).
	Errors        []string `json:"errors,omitempty"`
	ExecutionTime string   `json:"execution_time"`
}

// Sync runs one full synchronization pass for a source: fetch info (hard
// requirement), update source metadata, then best-effort fetch of the
// aggregated payload and rebuild of the field schema and aggregate stores.
// A failed aggregated fetch leaves the previous schema untouched and the
// sync still succeeds.
func (o *Orchestrator) Sync(ctx context.Context, source *models.Source) (*Report, error) {
	start := time.Now()
	report := &Report{Warnings: []string{}, Errors: []string{}}
	api := o.apiFor(source)
	l := o.logger.With(zap.Uint("source_id", source.ID))

	info, res := api.FetchInfo(ctx)
	if !res.OK() {
		l.Error("info fetch failed", zap.Error(res.Failure()))
		return nil, res.Failure()
	}
	l.Info("info fetched", zap.Int("status", res.StatusCode))

	now := time.Now()
	o.applyInfo(source, info, now)
	if err := o.db.Save(source).Error; err != nil {
		return nil, err
	}
	o.snapshot(ctx, source.ID, "info", info)

	aggregated, res := api.FetchAggregated(ctx)
	if !res.OK() {
		// Best effort: keep the existing schema and aggregates.
		l.Warn("aggregated fetch failed, keeping prior schema", zap.Error(res.Failure()))
		report.Errors = append(report.Errors, res.Failure().Error())
		report.ExecutionTime = time.Since(start).String()
		return report, nil
	}

	report.ItemCount = jsonkey.Int(aggregated, "itemCount", 0)
	source.ItemCount = report.ItemCount
	if err := o.db.Model(source).Update("item_count", source.ItemCount).Error; err != nil {
		return nil, err
	}

	if defs := jsonkey.Slice(aggregated, "customFields"); defs != nil {
		created, warnings, err := schema.RebuildDefinitions(o.db, l, source.ID, defs)
		if err != nil {
			return nil, err
		}
		report.DefinitionsCreated = created
		report.Warnings = append(report.Warnings, warnings...)
	} else {
		l.Warn("aggregated payload has no custom fields key")
		report.Warnings = append(report.Warnings, "aggregated payload has no custom fields key")
	}

	if aggs := jsonkey.Slice(aggregated, "aggregatedResults"); aggs != nil {
		created, warnings, err := schema.RebuildAggregates(o.db, l, source.ID, aggs)
		if err != nil {
			return nil, err
		}
		report.AggregatesCreated = created
		report.Warnings = append(report.Warnings, warnings...)
	} else {
		l.Warn("aggregated payload has no aggregated results key")
		report.Warnings = append(report.Warnings, "aggregated payload has no aggregated results key")
	}

	o.snapshot(ctx, source.ID, "aggregated", aggregated)

	report.ExecutionTime = time.Since(start).String()
	l.Info("sync completed",
		zap.Int("definitions", report.DefinitionsCreated),
		zap.Int("aggregates", report.AggregatesCreated),
		zap.String("total_time", report.ExecutionTime))
	return report, nil
}

// ImportItems fetches the item records (hard requirement) and reconciles
// them one by one in payload order. A single failing item is logged and
// skipped; it never aborts the batch.
func (o *Orchestrator) ImportItems(ctx context.Context, source *models.Source) (*Report, error) {
	start := time.Now()
	report := &Report{Warnings: []string{}, Errors: []string{}}
	api := o.apiFor(source)
	l := o.logger.With(zap.Uint("source_id", source.ID))

	items, res := api.FetchItems(ctx)
	if !res.OK() {
		l.Error("items fetch failed", zap.Error(res.Failure()))
		return nil, res.Failure()
	}
	l.Info("items fetched", zap.Int("count", len(items)))

	defs, err := reconcile.LoadSchema(o.db, source.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i, item := range items {
		outcome, err := reconcile.ReconcileItem(o.db, l, source.ID, item, defs, now)
		if err != nil {
			l.Warn("item reconciliation failed, skipping",
				zap.Int("index", i), zap.Error(err))
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		if outcome.Created {
			report.Imported++
		} else {
			report.Updated++
		}
		report.Warnings = append(report.Warnings, outcome.Warnings...)
	}

	source.LastSyncAt = &now
	if err := o.db.Model(source).Update("last_sync_at", now).Error; err != nil {
		return nil, err
	}

	o.snapshot(ctx, source.ID, "items", items)

	report.ExecutionTime = time.Since(start).String()
	l.Info("item import completed",
		zap.Int("imported", report.Imported),
		zap.Int("updated", report.Updated),
		zap.String("total_time", report.ExecutionTime))
	return report, nil
}

// applyInfo writes remote metadata onto the source, accepting the field
// name variants different API versions emit. Absent keys leave the current
// value alone; the last-sync timestamp is always advanced.
func (o *Orchestrator) applyInfo(source *models.Source, info map[string]any, now time.Time) {
	if v, ok := resolveAny(info, "title", "name"); ok {
		source.DisplayName = utils.ToString(v)
	}
	if v, ok := jsonkey.Resolve(info, "description"); ok {
		source.Description = utils.ToString(v)
	}
	if v, ok := resolveAny(info, "id", "inventoryId"); ok {
		source.ExternalID = utils.ToInt(v)
	}
	if v, ok := jsonkey.Resolve(info, "category"); ok {
		source.Category = utils.ToString(v)
	}
	if v, ok := resolveAny(info, "isPublic", "public"); ok {
		source.IsPublic = utils.ToBool(v)
	}
	if v, ok := resolveAny(info, "createdAt", "createDate", "creationDate"); ok {
		source.RemoteCreatedAt = client.ParseRemoteTime(utils.ToString(v))
	}
	if v, ok := resolveAny(info, "updatedAt", "updateDate", "lastModified"); ok {
		source.RemoteUpdatedAt = client.ParseRemoteTime(utils.ToString(v))
	}
	source.LastSyncAt = &now
}

// resolveAny tries several logical keys in order and returns the first hit.
func resolveAny(obj map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := jsonkey.Resolve(obj, key); ok {
			return v, true
		}
	}
	return nil, false
}

func (o *Orchestrator) apiFor(source *models.Source) *client.Client {
	return client.New(source.APIURL, source.APIToken, source.InsecureTLS, o.logger)
}
