package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-connector/core/jsonkey"
	"inventory-connector/core/utils"
	"inventory-connector/feature/inventory/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMissingID marks an item payload with no usable id field. The import
// loop logs it and moves on; it never aborts the batch.
var ErrMissingID = errors.New("item payload has no id")

// slot families checked for positional field values, in pass order.
var slotFamilies = []struct {
	fieldType string
	keyPrefix string
	label     string
}{
	{models.FieldTypeText, "textField", "Text Field"},
	{models.FieldTypeNumeric, "numericField", "Numeric Field"},
	{models.FieldTypeBoolean, "booleanField", "Boolean Field"},
}

const slotsPerFamily = 3

// Outcome reports what one item reconciliation did.
type Outcome struct {
	Item     models.Item
	Created  bool
	Warnings []string
}

// LoadSchema returns a source's field definitions in their persisted
// sequence order. Slot claiming depends on this ordering.
func LoadSchema(db *gorm.DB, sourceID uint) ([]models.FieldDefinition, error) {
	var defs []models.FieldDefinition
	err := db.Where("source_id = ?", sourceID).
		Order("sequence asc, id asc").
		Find(&defs).Error
	if err != nil {
		return nil, fmt.Errorf("load field definitions: %w", err)
	}
	return defs, nil
}

// ReconcileItem upserts one item record and rebuilds its field values and
// tags from the incoming payload. The item's previous field values are
// always dropped and recreated; tags are replaced with exactly the resolved
// set. The whole pass runs in one transaction.
func ReconcileItem(db *gorm.DB, logger *zap.Logger, sourceID uint, data map[string]any, schema []models.FieldDefinition, now time.Time) (*Outcome, error) {
	rawID, ok := jsonkey.Resolve(data, "id")
	if !ok || rawID == nil {
		return nil, ErrMissingID
	}
	// External ids of any JSON type are stringified for the uniqueness key.
	externalID := utils.ToString(rawID)

	outcome := &Outcome{}

	err := db.Transaction(func(tx *gorm.DB) error {
		item, created, err := upsertItem(tx, sourceID, externalID, data, now)
		if err != nil {
			return err
		}
		outcome.Created = created

		values, warnings := buildFieldValues(data, schema)
		outcome.Warnings = append(outcome.Warnings, warnings...)

		for i := range values {
			values[i].ItemID = item.ID
		}
		if len(values) > 0 {
			if err := tx.Create(&values).Error; err != nil {
				return fmt.Errorf("create field values: %w", err)
			}
		}

		tags, err := resolveTags(tx, sourceID, data)
		if err != nil {
			return err
		}
		if err := tx.Model(item).Association("Tags").Replace(&tags); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}

		outcome.Item = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, w := range outcome.Warnings {
		logger.Warn("item reconciliation", zap.String("external_id", externalID), zap.String("warning", w))
	}

	return outcome, nil
}

// upsertItem finds or creates the item row and clears its previous field
// values when it already existed.
func upsertItem(tx *gorm.DB, sourceID uint, externalID string, data map[string]any, now time.Time) (*models.Item, bool, error) {
	name := jsonkey.String(data, "name", "Item "+externalID)

	var item models.Item
	err := tx.Where("source_id = ? AND external_id = ?", sourceID, externalID).First(&item).Error
	switch {
	case err == nil:
		item.Name = name
		item.LastUpdateAt = &now
		if err := tx.Save(&item).Error; err != nil {
			return nil, false, fmt.Errorf("update item: %w", err)
		}
		if err := tx.Where("item_id = ?", item.ID).Delete(&models.FieldValue{}).Error; err != nil {
			return nil, false, fmt.Errorf("purge field values: %w", err)
		}
		return &item, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.Item{
			SourceID:     sourceID,
			ExternalID:   externalID,
			Name:         name,
			ImportedAt:   now,
			LastUpdateAt: &now,
			Active:       true,
		}
		if err := tx.Create(&item).Error; err != nil {
			return nil, false, fmt.Errorf("create item: %w", err)
		}
		return &item, true, nil

	default:
		return nil, false, fmt.Errorf("lookup item: %w", err)
	}
}

// buildFieldValues classifies the payload's values against the schema. The
// keyed customFields mapping is matched by exact name; positional slot
// fields then claim the first unclaimed definition of their type family in
// schema order, falling back to a synthesized placeholder name.
func buildFieldValues(data map[string]any, schema []models.FieldDefinition) ([]models.FieldValue, []string) {
	var values []models.FieldValue
	var warnings []string

	// Field names that already received a value this pass. Slot claiming
	// below depends on it, so it is threaded through both phases.
	processed := make(map[string]bool)

	defByName := make(map[string]models.FieldDefinition, len(schema))
	for _, def := range schema {
		defByName[def.Name] = def
	}

	if custom := jsonkey.Map(data, "customFields"); custom != nil {
		for name, raw := range custom {
			if raw == nil || raw == "" {
				continue
			}
			def, ok := defByName[name]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("no field definition for %q", name))
				continue
			}
			values = append(values, typedValue(name, def.FieldType, raw))
			processed[name] = true
		}
	}

	for _, family := range slotFamilies {
		for i := 1; i <= slotsPerFamily; i++ {
			raw, ok := jsonkey.Resolve(data, fmt.Sprintf("%s%dValue", family.keyPrefix, i))
			if !ok || raw == nil {
				continue
			}

			// Claim the first definition of this type not yet holding a
			// value. Schema order decides which one, so this loop must stay
			// sequential.
			name := ""
			for _, def := range schema {
				if def.FieldType == family.fieldType && !processed[def.Name] {
					name = def.Name
					processed[name] = true
					break
				}
			}
			if name == "" {
				name = fmt.Sprintf("%s %d", family.label, i)
				warnings = append(warnings, fmt.Sprintf("no unclaimed %s definition, using placeholder %q", family.fieldType, name))
			}

			values = append(values, typedValue(name, family.fieldType, raw))
		}
	}

	return values, warnings
}

// typedValue creates a FieldValue with the slot matching fieldType
// populated. Numeric strings parse as numbers; document and unknown types
// store as text.
func typedValue(name, fieldType string, raw any) models.FieldValue {
	value := models.FieldValue{FieldName: name, FieldType: fieldType}
	switch fieldType {
	case models.FieldTypeNumeric:
		value.NumericValue = utils.ToFloat(raw)
	case models.FieldTypeBoolean:
		value.BooleanValue = utils.ToBool(raw)
	default:
		value.TextValue = utils.ToString(raw)
	}
	return value
}

// resolveTags collects the item's tag names and finds or creates the Tag
// rows. Names come from a "tags" array, or from a comma-separated
// "tagsString" only when the array key is absent. Duplicates are dropped,
// first occurrence wins.
func resolveTags(tx *gorm.DB, sourceID uint, data map[string]any) ([]models.Tag, error) {
	var names []string

	if raw, ok := jsonkey.Resolve(data, "tags"); ok {
		if list, ok := raw.([]any); ok {
			for _, entry := range list {
				names = append(names, utils.ToString(entry))
			}
		}
	} else {
		for _, part := range strings.Split(jsonkey.String(data, "tagsString", ""), ",") {
			names = append(names, strings.TrimSpace(part))
		}
	}

	seen := make(map[string]bool)
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		err := tx.Where("source_id = ? AND name = ?", sourceID, name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var count int64
			tx.Model(&models.Tag{}).Where("source_id = ?", sourceID).Count(&count)
			tag = models.Tag{SourceID: sourceID, Name: name, Color: int(count % 12)}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("lookup tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}

	return tags, nil
}
