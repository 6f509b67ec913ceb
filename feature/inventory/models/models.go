package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Field types exposed by remote inventory sources. Values of unknown or
// "document" types are stored in the text slot.
const (
	FieldTypeText      = "text"
	FieldTypeMultiline = "multiline"
	FieldTypeNumeric   = "numeric"
	FieldTypeBoolean   = "boolean"
	FieldTypeDocument  = "document"
)

// IsKnownFieldType reports whether t is one of the supported field types.
func IsKnownFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeMultiline, FieldTypeNumeric, FieldTypeBoolean, FieldTypeDocument:
		return true
	default:
		return false
	}
}

// Source is one external inventory connection. Connection fields (APIURL,
// APIToken, InsecureTLS) are user-edited; metadata fields are owned by the
// sync pass.
type Source struct {
	ID          uint   `gorm:"primaryKey"`
	DisplayName string `gorm:"column:display_name;type:varchar(255);not null"`
	Description string `gorm:"column:description;type:text"`
	Category    string `gorm:"column:category;type:varchar(255)"`
	IsPublic    bool   `gorm:"column:is_public;default:false"`

	// ExternalID is the identifier the remote API reports for itself.
	ExternalID  int    `gorm:"column:external_id;default:0"`
	APIURL      string `gorm:"column:api_url;type:varchar(512);not null"`
	APIToken    string `gorm:"column:api_token;type:varchar(255);uniqueIndex;not null"`
	InsecureTLS bool   `gorm:"column:insecure_tls;default:false"`

	RemoteCreatedAt *time.Time `gorm:"column:remote_created_at"`
	RemoteUpdatedAt *time.Time `gorm:"column:remote_updated_at"`
	ItemCount       int        `gorm:"column:item_count;default:0"`
	LastSyncAt      *time.Time `gorm:"column:last_sync_at"`
	Active          bool       `gorm:"column:active;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	FieldDefinitions []FieldDefinition `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
	FieldAggregates  []FieldAggregate  `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
	Items            []Item            `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
	Tags             []Tag             `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
}

func (Source) TableName() string {
	return "inventory_sources"
}

// FieldDefinition describes one custom field exposed by a source. The whole
// set for a source is replaced on every sync; Sequence preserves the
// document order of the aggregated payload because slot claiming during item
// reconciliation depends on it.
type FieldDefinition struct {
	ID          uint   `gorm:"primaryKey"`
	SourceID    uint   `gorm:"column:source_id;not null;uniqueIndex:uq_fielddef_source_name"`
	Name        string `gorm:"column:name;type:varchar(255);not null;uniqueIndex:uq_fielddef_source_name"`
	FieldType   string `gorm:"column:field_type;type:varchar(16);not null;default:text"`
	Description string `gorm:"column:description;type:text"`
	ShowInTable bool   `gorm:"column:show_in_table;default:false"`
	Sequence    int    `gorm:"column:sequence;default:10"`

	// Numeric field specific attributes
	MinValue  float64 `gorm:"column:min_value;default:0"`
	MaxValue  float64 `gorm:"column:max_value;default:0"`
	IsInteger bool    `gorm:"column:is_integer;default:false"`
}

func (FieldDefinition) TableName() string {
	return "inventory_field_definitions"
}

// CommonValue is one entry of a text aggregate's most-common-values list.
type CommonValue struct {
	Value      string  `json:"value"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
}

// FieldAggregate is one precomputed statistic set for one field of one
// source. Only the slots matching FieldType carry meaning.
type FieldAggregate struct {
	ID        uint   `gorm:"primaryKey"`
	SourceID  uint   `gorm:"column:source_id;not null;index"`
	FieldName string `gorm:"column:field_name;type:varchar(255);not null"`
	FieldType string `gorm:"column:field_type;type:varchar(16);not null;default:text"`

	// Numeric aggregations
	MinValue     float64 `gorm:"column:min_value;default:0"`
	MaxValue     float64 `gorm:"column:max_value;default:0"`
	AverageValue float64 `gorm:"column:average_value;default:0"`
	MedianValue  float64 `gorm:"column:median_value;default:0"`

	// Boolean aggregations
	TrueCount      int     `gorm:"column:true_count;default:0"`
	FalseCount     int     `gorm:"column:false_count;default:0"`
	TruePercentage float64 `gorm:"column:true_percentage;default:0"`

	// Text aggregations, serialized [{value, frequency, percentage}]
	CommonValuesJSON string `gorm:"column:common_values_json;type:text"`
}

func (FieldAggregate) TableName() string {
	return "inventory_field_aggregates"
}

// CommonValues decodes the serialized most-common-values list. A blank or
// malformed payload yields nil.
func (a FieldAggregate) CommonValues() []CommonValue {
	if a.CommonValuesJSON == "" {
		return nil
	}
	var values []CommonValue
	if err := json.Unmarshal([]byte(a.CommonValuesJSON), &values); err != nil {
		return nil
	}
	return values
}

// Item is one inventory record imported from a source, matched across syncs
// by (SourceID, ExternalID).
type Item struct {
	ID         uint   `gorm:"primaryKey"`
	SourceID   uint   `gorm:"column:source_id;not null;uniqueIndex:uq_item_source_external"`
	ExternalID string `gorm:"column:external_id;type:varchar(64);not null;uniqueIndex:uq_item_source_external"`
	Name       string `gorm:"column:name;type:varchar(255);not null"`

	ImportedAt   time.Time  `gorm:"column:imported_at"`
	LastUpdateAt *time.Time `gorm:"column:last_update_at"`
	Active       bool       `gorm:"column:active;default:true"`

	FieldValues []FieldValue `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	Tags        []Tag        `gorm:"many2many:inventory_item_tags"`
}

func (Item) TableName() string {
	return "inventory_items"
}

// FieldValue is one observed (item, field name) value. Exactly one typed
// slot is populated, selected by FieldType. The whole set for an item is
// replaced on every sync touching that item.
type FieldValue struct {
	ID        uint   `gorm:"primaryKey"`
	ItemID    uint   `gorm:"column:item_id;not null;index"`
	FieldName string `gorm:"column:field_name;type:varchar(255);not null"`
	FieldType string `gorm:"column:field_type;type:varchar(16);not null"`

	TextValue    string  `gorm:"column:text_value;type:text"`
	NumericValue float64 `gorm:"column:numeric_value;default:0"`
	BooleanValue bool    `gorm:"column:boolean_value;default:false"`
}

func (FieldValue) TableName() string {
	return "inventory_field_values"
}

// DisplayValue renders the populated slot as a string for list views.
func (v FieldValue) DisplayValue() string {
	switch v.FieldType {
	case FieldTypeNumeric:
		return trimFloat(v.NumericValue)
	case FieldTypeBoolean:
		if v.BooleanValue {
			return "Yes"
		}
		return "No"
	default:
		return v.TextValue
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Tag is a named label scoped to one source. Tags are created on first
// occurrence during item import and never deleted by the sync process.
type Tag struct {
	ID       uint   `gorm:"primaryKey"`
	SourceID uint   `gorm:"column:source_id;not null;uniqueIndex:uq_tag_source_name"`
	Name     string `gorm:"column:name;type:varchar(255);not null;uniqueIndex:uq_tag_source_name"`
	// Color is a display color index for kanban-style views.
	Color int `gorm:"column:color;default:0"`

	Items []Item `gorm:"many2many:inventory_item_tags"`
}

func (Tag) TableName() string {
	return "inventory_tags"
}

// All returns every entity for AutoMigrate, association tables included.
func All() []any {
	return []any{
		&Source{},
		&FieldDefinition{},
		&FieldAggregate{},
		&Item{},
		&FieldValue{},
		&Tag{},
	}
}
