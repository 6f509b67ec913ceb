package reconcile_test

import (
	"fmt"
	"testing"
	"time"

	"inventory-connector/feature/inventory/models"
	"inventory-connector/feature/inventory/reconcile"

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

func seedSource(t *testing.T, db *gorm.DB, token string) *models.Source {
	source := models.Source{
		DisplayName: "Test Inventory",
		APIURL:      "https://inventory.example",
		APIToken:    token,
		Active:      true,
	}
	if err := db.Create(&source).Error; err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}
	return &source
}

func seedSchema(t *testing.T, db *gorm.DB, sourceID uint, defs ...models.FieldDefinition) []models.FieldDefinition {
	for i := range defs {
		defs[i].SourceID = sourceID
		defs[i].Sequence = (i + 1) * 10
		if err := db.Create(&defs[i]).Error; err != nil {
			t.Fatalf("failed to seed definition: %v", err)
		}
	}
	loaded, err := reconcile.LoadSchema(db, sourceID)
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	return loaded
}

func fieldValues(t *testing.T, db *gorm.DB, itemID uint) map[string]models.FieldValue {
	var values []models.FieldValue
	if err := db.Where("item_id = ?", itemID).Find(&values).Error; err != nil {
		t.Fatalf("failed to load field values: %v", err)
	}
	byName := make(map[string]models.FieldValue, len(values))
	for _, v := range values {
		byName[v.FieldName] = v
	}
	return byName
}

func TestReconcileItemCreatesWithKeyedFields(t *testing.T) {
	db := setupTestDB(t, "reconcile_create")
	source := seedSource(t, db, "token-create")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Color", FieldType: models.FieldTypeText},
		models.FieldDefinition{Name: "Weight", FieldType: models.FieldTypeNumeric},
		models.FieldDefinition{Name: "Fragile", FieldType: models.FieldTypeBoolean},
	)

	data := map[string]any{
		"id":   7.0,
		"name": "Crate",
		"customFields": map[string]any{
			"Color":   "Red",
			"Weight":  "3.5",
			"Fragile": true,
		},
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Empty(t, outcome.Warnings)

	// Numeric JSON ids stringify without a decimal suffix.
	assert.Equal(t, "7", outcome.Item.ExternalID)
	assert.Equal(t, "Crate", outcome.Item.Name)
	assert.True(t, outcome.Item.Active)

	values := fieldValues(t, db, outcome.Item.ID)
	assert.Len(t, values, 3)
	assert.Equal(t, "Red", values["Color"].TextValue)
	assert.Equal(t, 3.5, values["Weight"].NumericValue)
	assert.True(t, values["Fragile"].BooleanValue)
}

func TestReconcileItemUpdateReplacesFieldValues(t *testing.T) {
	db := setupTestDB(t, "reconcile_update")
	source := seedSource(t, db, "token-update")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Color", FieldType: models.FieldTypeText},
		models.FieldDefinition{Name: "Material", FieldType: models.FieldTypeText},
	)

	first := map[string]any{
		"id":   "A-1",
		"name": "Crate",
		"customFields": map[string]any{
			"Color":    "Red",
			"Material": "Wood",
		},
	}
	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, first, schema, time.Now())
	assert.NoError(t, err)
	assert.True(t, outcome.Created)

	// Second payload renames the item and drops Material. No stale value may
	// survive the rerun.
	second := map[string]any{
		"id":   "A-1",
		"name": "Crate (large)",
		"customFields": map[string]any{
			"Color": "Blue",
		},
	}
	outcome, err = reconcile.ReconcileItem(db, zap.NewNop(), source.ID, second, schema, time.Now())
	assert.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Equal(t, "Crate (large)", outcome.Item.Name)

	var count int64
	db.Model(&models.Item{}).Where("source_id = ?", source.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	values := fieldValues(t, db, outcome.Item.ID)
	assert.Len(t, values, 1)
	assert.Equal(t, "Blue", values["Color"].TextValue)
}

func TestReconcileItemSlotClaimingFollowsSchemaOrder(t *testing.T) {
	db := setupTestDB(t, "reconcile_slots")
	source := seedSource(t, db, "token-slots")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Alpha", FieldType: models.FieldTypeText},
		models.FieldDefinition{Name: "Beta", FieldType: models.FieldTypeText},
		models.FieldDefinition{Name: "Weight", FieldType: models.FieldTypeNumeric},
	)

	data := map[string]any{
		"id":                 1.0,
		"name":               "Crate",
		"textField1Value":    "first",
		"textField2Value":    "second",
		"numericField1Value": 4.5,
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)
	assert.Empty(t, outcome.Warnings)

	values := fieldValues(t, db, outcome.Item.ID)
	assert.Equal(t, "first", values["Alpha"].TextValue)
	assert.Equal(t, "second", values["Beta"].TextValue)
	assert.Equal(t, 4.5, values["Weight"].NumericValue)
}

func TestReconcileItemKeyedFieldBlocksSlotClaim(t *testing.T) {
	db := setupTestDB(t, "reconcile_claimed")
	source := seedSource(t, db, "token-claimed")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Alpha", FieldType: models.FieldTypeText},
		models.FieldDefinition{Name: "Beta", FieldType: models.FieldTypeText},
	)

	// Alpha is taken by the keyed pass, so the positional slot must claim
	// Beta instead.
	data := map[string]any{
		"id":   1.0,
		"name": "Crate",
		"customFields": map[string]any{
			"Alpha": "keyed",
		},
		"textField1Value": "positional",
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)

	values := fieldValues(t, db, outcome.Item.ID)
	assert.Equal(t, "keyed", values["Alpha"].TextValue)
	assert.Equal(t, "positional", values["Beta"].TextValue)
}

func TestReconcileItemSlotOverflowUsesPlaceholder(t *testing.T) {
	db := setupTestDB(t, "reconcile_overflow")
	source := seedSource(t, db, "token-overflow")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Alpha", FieldType: models.FieldTypeText},
	)

	data := map[string]any{
		"id":              1.0,
		"name":            "Crate",
		"textField1Value": "fits",
		"textField2Value": "overflows",
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)
	assert.Len(t, outcome.Warnings, 1)

	values := fieldValues(t, db, outcome.Item.ID)
	assert.Equal(t, "fits", values["Alpha"].TextValue)
	assert.Equal(t, "overflows", values["Text Field 2"].TextValue)
}

func TestReconcileItemUnknownKeyedFieldWarns(t *testing.T) {
	db := setupTestDB(t, "reconcile_unknown")
	source := seedSource(t, db, "token-unknown")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Color", FieldType: models.FieldTypeText},
	)

	data := map[string]any{
		"id":   1.0,
		"name": "Crate",
		"customFields": map[string]any{
			"Color":    "Red",
			"Imagined": "value",
		},
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)
	assert.Len(t, outcome.Warnings, 1)

	values := fieldValues(t, db, outcome.Item.ID)
	assert.Len(t, values, 1)
}

func TestReconcileItemTags(t *testing.T) {
	db := setupTestDB(t, "reconcile_tags")
	source := seedSource(t, db, "token-tags")
	schema := seedSchema(t, db, source.ID)

	data := map[string]any{
		"id":   1.0,
		"name": "Crate",
		"tags": []any{"red", "blue", "red"},
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)

	var tags []models.Tag
	err = db.Model(&outcome.Item).Association("Tags").Find(&tags)
	assert.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestReconcileItemTagsStringFallback(t *testing.T) {
	db := setupTestDB(t, "reconcile_tagstring")
	source := seedSource(t, db, "token-tagstring")
	schema := seedSchema(t, db, source.ID)

	data := map[string]any{
		"id":         1.0,
		"name":       "Crate",
		"tagsString": "red, blue ,red",
	}

	outcome, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)

	var names []string
	err = db.Model(&models.Tag{}).Where("source_id = ?", source.ID).Order("id asc").Pluck("name", &names).Error
	assert.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, names)

	var tags []models.Tag
	err = db.Model(&outcome.Item).Association("Tags").Find(&tags)
	assert.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestReconcileItemTagsArrayWinsOverString(t *testing.T) {
	db := setupTestDB(t, "reconcile_tagboth")
	source := seedSource(t, db, "token-tagboth")
	schema := seedSchema(t, db, source.ID)

	data := map[string]any{
		"id":         1.0,
		"name":       "Crate",
		"tags":       []any{"green"},
		"tagsString": "red, blue",
	}

	_, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
	assert.NoError(t, err)

	var names []string
	err = db.Model(&models.Tag{}).Where("source_id = ?", source.ID).Pluck("name", &names).Error
	assert.NoError(t, err)
	assert.Equal(t, []string{"green"}, names)
}

func TestReconcileItemMissingID(t *testing.T) {
	db := setupTestDB(t, "reconcile_noid")
	source := seedSource(t, db, "token-noid")

	_, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, map[string]any{"name": "Crate"}, nil, time.Now())
	assert.ErrorIs(t, err, reconcile.ErrMissingID)
}

func TestReconcileItemIdempotentRerun(t *testing.T) {
	db := setupTestDB(t, "reconcile_idempotent")
	source := seedSource(t, db, "token-idempotent")
	schema := seedSchema(t, db, source.ID,
		models.FieldDefinition{Name: "Color", FieldType: models.FieldTypeText},
	)

	data := map[string]any{
		"id":   1.0,
		"name": "Crate",
		"customFields": map[string]any{
			"Color": "Red",
		},
		"tags": []any{"red"},
	}

	for i := 0; i < 3; i++ {
		_, err := reconcile.ReconcileItem(db, zap.NewNop(), source.ID, data, schema, time.Now())
		assert.NoError(t, err)
	}

	var itemCount, valueCount, tagCount int64
	db.Model(&models.Item{}).Where("source_id = ?", source.ID).Count(&itemCount)
	db.Model(&models.FieldValue{}).Count(&valueCount)
	db.Model(&models.Tag{}).Where("source_id = ?", source.ID).Count(&tagCount)
	assert.Equal(t, int64(1), itemCount)
	assert.Equal(t, int64(1), valueCount)
	assert.Equal(t, int64(1), tagCount)
}
