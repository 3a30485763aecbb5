package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is one cost-center share inside a CostAllocationRule.
type Allocation struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	Source     string          `json:"source"`
}

// AllocationMap maps a cost-account code to its share of an employee's cost.
// Stored as a JSON column; the map must round-trip losslessly.
type AllocationMap map[string]Allocation

func (m AllocationMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *AllocationMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into AllocationMap", src)
	}
}

// StringList is a JSON-encoded list of strings (validation errors, mapping
// errors).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// CostAllocationRule expresses what fraction of an employee's period cost
// belongs to each cost center. One rule per employee per period. A rule that
// fails validation is still persisted with IsValid=false so the failure is
// visible and correctable.
type CostAllocationRule struct {
	ID               int64           `db:"id" json:"id"`
	PeriodID         int64           `db:"period_id" json:"period_id"`
	EmployeeCode     string          `db:"employee_code" json:"employee_code"`
	Allocations      AllocationMap   `db:"allocations" json:"allocations"`
	Source           string          `db:"source" json:"source"`
	TotalAmount      decimal.Decimal `db:"total_amount" json:"total_amount"`
	IsValid          bool            `db:"is_valid" json:"is_valid"`
	ValidationErrors StringList      `db:"validation_errors" json:"validation_errors"`
	CreatedAt        time.Time       `db:"created_at" json:"-"`
	UpdatedAt        time.Time       `db:"updated_at" json:"-"`
}

// Allocation source constants
const (
	AllocationSourceDefault  = "default"
	AllocationSourceDerived  = "derived"
	AllocationSourceOverride = "override"
)
