package schema

import (
	"encoding/json"
	"fmt"

	"inventory-connector/core/jsonkey"
	"inventory-connector/feature/inventory/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RebuildDefinitions replaces the entire field definition set of a source
// with definitions derived from the aggregated payload's custom field list.
// The delete and the inserts run in one transaction so readers never observe
// the gap between them. A single malformed entry is retried once with
// sanitized values and then skipped; it never aborts the rebuild.
func RebuildDefinitions(db *gorm.DB, logger *zap.Logger, sourceID uint, defs []any) (int, []string, error) {
	var warnings []string
	created := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", sourceID).Delete(&models.FieldDefinition{}).Error; err != nil {
			return fmt.Errorf("purge field definitions: %w", err)
		}

		for i, entry := range defs {
			obj, ok := entry.(map[string]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("field definition %d: not an object, skipping", i))
				continue
			}

			def := resolveDefinition(obj, sourceID, (i+1)*10, &warnings)

			if err := tx.Create(&def).Error; err != nil {
				logger.Warn("field definition create failed, retrying with fallback values",
					zap.String("name", def.Name), zap.Error(err))
				fallback := sanitizeDefinition(def)
				if err := tx.Create(&fallback).Error; err != nil {
					warnings = append(warnings, fmt.Sprintf("field definition %q: skipped after retry: %v", def.Name, err))
					continue
				}
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, warnings, err
	}

	return created, warnings, nil
}

// resolveDefinition extracts one FieldDefinition from a payload entry,
// accepting camelCase and PascalCase keys.
func resolveDefinition(obj map[string]any, sourceID uint, sequence int, warnings *[]string) models.FieldDefinition {
	fieldType := jsonkey.String(obj, "type", models.FieldTypeText)
	if fieldType == "" {
		fieldType = models.FieldTypeText
	}
	if !models.IsKnownFieldType(fieldType) {
		*warnings = append(*warnings, fmt.Sprintf("field definition: unknown type %q, storing as text", fieldType))
		fieldType = models.FieldTypeText
	}

	def := models.FieldDefinition{
		SourceID:    sourceID,
		Name:        jsonkey.String(obj, "name", ""),
		FieldType:   fieldType,
		Description: jsonkey.String(obj, "description", ""),
		ShowInTable: jsonkey.Bool(obj, "showInTable", false),
		Sequence:    sequence,
	}

	// Numeric bounds only carry meaning for numeric fields.
	if fieldType == models.FieldTypeNumeric {
		if cfg := jsonkey.Map(obj, "numericConfig"); cfg != nil {
			def.MinValue = jsonkey.Float(cfg, "minValue", 0)
			def.MaxValue = jsonkey.Float(cfg, "maxValue", 0)
			def.IsInteger = jsonkey.Bool(cfg, "isInteger", false)
		}
	}

	return def
}

// sanitizeDefinition produces the fallback row used when the first insert
// fails (typically a constraint violation on a blank or duplicate name).
func sanitizeDefinition(def models.FieldDefinition) models.FieldDefinition {
	if def.Name == "" {
		def.Name = "Unnamed Field"
	}
	def.FieldType = models.FieldTypeText
	def.MinValue = 0
	def.MaxValue = 0
	def.IsInteger = false
	return def
}

// RebuildAggregates replaces the entire aggregate set of a source with
// entries derived from the aggregated payload's results list. Entries with a
// blank resolved field name are skipped with a warning. The same
// retry-with-minimal-values-then-skip policy as RebuildDefinitions applies.
func RebuildAggregates(db *gorm.DB, logger *zap.Logger, sourceID uint, aggs []any) (int, []string, error) {
	var warnings []string
	created := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", sourceID).Delete(&models.FieldAggregate{}).Error; err != nil {
			return fmt.Errorf("purge field aggregates: %w", err)
		}

		for i, entry := range aggs {
			obj, ok := entry.(map[string]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("aggregate %d: not an object, skipping", i))
				continue
			}

			agg := resolveAggregate(obj, sourceID)
			if agg.FieldName == "" {
				warnings = append(warnings, fmt.Sprintf("aggregate %d: blank field name, skipping", i))
				continue
			}

			if err := tx.Create(&agg).Error; err != nil {
				logger.Warn("field aggregate create failed, retrying with minimal values",
					zap.String("field", agg.FieldName), zap.Error(err))
				minimal := models.FieldAggregate{
					SourceID:  sourceID,
					FieldName: agg.FieldName,
					FieldType: agg.FieldType,
				}
				if minimal.FieldType == "" {
					minimal.FieldType = models.FieldTypeText
				}
				if err := tx.Create(&minimal).Error; err != nil {
					warnings = append(warnings, fmt.Sprintf("aggregate %q: skipped after retry: %v", agg.FieldName, err))
					continue
				}
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, warnings, err
	}

	return created, warnings, nil
}

// resolveAggregate extracts one FieldAggregate, populating only the slots
// that carry meaning for the resolved field type.
func resolveAggregate(obj map[string]any, sourceID uint) models.FieldAggregate {
	agg := models.FieldAggregate{
		SourceID:  sourceID,
		FieldName: jsonkey.String(obj, "fieldName", ""),
		FieldType: jsonkey.String(obj, "fieldType", models.FieldTypeText),
	}
	if agg.FieldType == "" {
		agg.FieldType = models.FieldTypeText
	}

	switch agg.FieldType {
	case models.FieldTypeNumeric:
		agg.MinValue = jsonkey.Float(obj, "minValue", 0)
		agg.MaxValue = jsonkey.Float(obj, "maxValue", 0)
		agg.AverageValue = jsonkey.Float(obj, "averageValue", 0)
		agg.MedianValue = jsonkey.Float(obj, "medianValue", 0)
	case models.FieldTypeBoolean:
		agg.TrueCount = jsonkey.Int(obj, "trueCount", 0)
		agg.FalseCount = jsonkey.Int(obj, "falseCount", 0)
		agg.TruePercentage = jsonkey.Float(obj, "truePercentage", 0)
	case models.FieldTypeText, models.FieldTypeMultiline:
		if common := jsonkey.Slice(obj, "mostCommonValues"); len(common) > 0 {
			values := make([]models.CommonValue, 0, len(common))
			for _, c := range common {
				if cm, ok := c.(map[string]any); ok {
					values = append(values, models.CommonValue{
						Value:      jsonkey.String(cm, "value", ""),
						Frequency:  jsonkey.Int(cm, "frequency", 0),
						Percentage: jsonkey.Float(cm, "percentage", 0),
					})
				}
			}
			if encoded, err := json.Marshal(values); err == nil {
				agg.CommonValuesJSON = string(encoded)
			}
		}
	}

	return agg
}
