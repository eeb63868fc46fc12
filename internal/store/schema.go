// Package store owns the structured local store: named collections with
// secondary indexes, backed by SQLite or, in degraded mode, a flat
// key-value file.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
)

// Collection names recognized by the store.
const (
	Vehicles          = "vehicles"
	Todos             = "todos"
	UserSettings      = "userSettings"
	Reports           = "reports"
	ReportTemplates   = "reportTemplates"
	ReportSchedules   = "reportSchedules"
	PendingOperations = "pendingOperations"
	OfflineMode       = "offlineMode"
)

// IndexSpec describes one secondary index: the logical name callers use
// (the indexed JSON field) and the SQLite column it is materialized into.
type IndexSpec struct {
	Name   string
	Column string
}

// CollectionSpec describes one named collection.
type CollectionSpec struct {
	Name     string
	Table    string
	KeyField string
	Indexes  []IndexSpec
}

// collections is the full schema. Opening the store creates every table
// and index here idempotently.
var collections = []CollectionSpec{
	{
		Name: Vehicles, Table: "vehicles", KeyField: "id",
		Indexes: []IndexSpec{{Name: "status", Column: "status"}},
	},
	{
		Name: Todos, Table: "todos", KeyField: "id",
		Indexes: []IndexSpec{
			{Name: "vehicleId", Column: "vehicle_id"},
			{Name: "status", Column: "status"},
			{Name: "dueDate", Column: "due_date"},
		},
	},
	{Name: UserSettings, Table: "user_settings", KeyField: "key"},
	{Name: Reports, Table: "reports", KeyField: "id"},
	{Name: ReportTemplates, Table: "report_templates", KeyField: "id"},
	{Name: ReportSchedules, Table: "report_schedules", KeyField: "id"},
	{Name: PendingOperations, Table: "pending_operations", KeyField: "id"},
	{Name: OfflineMode, Table: "offline_mode", KeyField: "id"},
}

var specsByName = func() map[string]CollectionSpec {
	m := make(map[string]CollectionSpec, len(collections))
	for _, spec := range collections {
		m[spec.Name] = spec
	}
	return m
}()

// Collections returns the specs of every recognized collection.
func Collections() []CollectionSpec {
	out := make([]CollectionSpec, len(collections))
	copy(out, collections)
	return out
}

// IsCollection reports whether name is a recognized collection.
func IsCollection(name string) bool {
	_, ok := specsByName[name]
	return ok
}

// lookupSpec resolves a collection name, failing fast on unknown names.
func lookupSpec(name string) (CollectionSpec, error) {
	spec, ok := specsByName[name]
	if !ok {
		return CollectionSpec{}, apperr.Newf(apperr.ErrUnknownCollection, "unknown collection %q", name)
	}
	return spec, nil
}

// lookupIndex resolves a logical index name on a collection.
func (s CollectionSpec) lookupIndex(name string) (IndexSpec, error) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, nil
		}
	}
	return IndexSpec{}, apperr.Newf(apperr.ErrUnknownIndex, "collection %q has no index %q", s.Name, name)
}

// decodeRecord unmarshals a record into its fields and extracts the
// primary identifier for the given collection. Records without a
// non-empty identifier are rejected.
func decodeRecord(spec CollectionSpec, record json.RawMessage) (string, map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err != nil {
		return "", nil, apperr.Wrap(apperr.ErrValidation, "record is not a JSON object", err)
	}
	id := stringValue(fields[spec.KeyField])
	if id == "" {
		return "", nil, apperr.Newf(apperr.ErrValidation,
			"record for collection %q is missing identifier field %q", spec.Name, spec.KeyField)
	}
	return id, fields, nil
}

// RecordID extracts the primary identifier a record would be stored
// under in the named collection.
func RecordID(collection string, record json.RawMessage) (string, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return "", err
	}
	id, _, err := decodeRecord(spec, record)
	return id, err
}

// stringValue renders a decoded JSON scalar the way index columns and
// identifiers store it. Non-scalar and null values render empty.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return ""
	}
}

// indexValue renders a present indexed-field value for storage or
// lookup; indexed fields are scalars in practice. Absent and null
// fields are stored as SQL NULL instead and never reach here on write.
func indexValue(v any) string {
	if v == nil {
		return ""
	}
	if s := stringValue(v); s != "" {
		return s
	}
	return fmt.Sprint(v)
}
