package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue / jsonScan back every JSON column in this package so the
// MySQL driver sees []byte and gorm sees a plain struct field.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src any, dest any) error {
	if src == nil {
		return nil
	}
	switch raw := src.(type) {
	case []byte:
		return json.Unmarshal(raw, dest)
	case string:
		return json.Unmarshal([]byte(raw), dest)
	default:
		return fmt.Errorf("unsupported json column source type %T", src)
	}
}

// StringList is a JSON-encoded list of strings (scanned areas, tags).
type StringList []string

func (l StringList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *StringList) Scan(src any) error          { return jsonScan(src, l) }

// FindingsMap is the area->Finding snapshot persisted on a scan.
type FindingsMap map[string]Finding

func (m FindingsMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *FindingsMap) Scan(src any) error          { return jsonScan(src, m) }

// GeneratedReportList is the list of report references on a scan.
type GeneratedReportList []GeneratedReport

func (l GeneratedReportList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *GeneratedReportList) Scan(src any) error          { return jsonScan(src, l) }

// JSONMap is a free-form JSON object column (audit details, report stats).
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *JSONMap) Scan(src any) error          { return jsonScan(src, m) }
