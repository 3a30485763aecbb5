// Package registry holds the read-only mapping tables a reconciliation or
// allocation run works against. A Snapshot is loaded once at the start of a
// run so every employee in the run is judged against the same mapping version.
// Lookups report absence explicitly; callers decide the fallback policy.
package registry

import (
	"payroll-recon/internal/models"
)

type Snapshot struct {
	locations     map[string]models.LocationMapping
	payComponents map[string]models.PayComponentMapping
	splits        map[string][]models.SplitRule
	journalDescs  map[string]models.JournalDescriptionMapping
	txTypes       map[string]models.TransactionType
	employees     map[string]models.Employee
}

func NewSnapshot(
	locations []models.LocationMapping,
	payComponents []models.PayComponentMapping,
	splits []models.SplitRule,
	journalDescs []models.JournalDescriptionMapping,
	txTypes []models.TransactionType,
	employees []models.Employee,
) *Snapshot {
	s := &Snapshot{
		locations:     make(map[string]models.LocationMapping),
		payComponents: make(map[string]models.PayComponentMapping),
		splits:        make(map[string][]models.SplitRule),
		journalDescs:  make(map[string]models.JournalDescriptionMapping),
		txTypes:       make(map[string]models.TransactionType),
		employees:     make(map[string]models.Employee),
	}

	for _, lm := range locations {
		if !lm.Active {
			continue
		}
		s.locations[models.LocationKey(lm.Location, lm.Team)] = lm
	}
	for _, pc := range payComponents {
		s.payComponents[pc.PayComponent] = pc
	}
	for _, sr := range splits {
		s.splits[sr.SourceAccount] = append(s.splits[sr.SourceAccount], sr)
	}
	for _, jd := range journalDescs {
		s.journalDescs[jd.Description] = jd
	}
	for _, tt := range txTypes {
		s.txTypes[tt.Code] = tt
	}
	for _, e := range employees {
		s.employees[e.Code] = e
	}

	return s
}

// LookupLocation resolves a location+team composite to its active mapping.
func (s *Snapshot) LookupLocation(location, team string) (models.LocationMapping, bool) {
	lm, ok := s.locations[models.LocationKey(location, team)]
	return lm, ok
}

// LookupPayComponent resolves a pay component to its GL mapping.
func (s *Snapshot) LookupPayComponent(component string) (models.PayComponentMapping, bool) {
	pc, ok := s.payComponents[component]
	return pc, ok
}

// SplitTargets returns the redistribution targets for a virtual split account.
// A virtual account with no registered targets returns ok=false; the caller
// keeps the original key so the gap surfaces in reporting.
func (s *Snapshot) SplitTargets(sourceAccount string) ([]models.SplitRule, bool) {
	targets, ok := s.splits[sourceAccount]
	return targets, ok && len(targets) > 0
}

// LookupJournalDescription resolves a free-text journal description.
func (s *Snapshot) LookupJournalDescription(description string) (models.JournalDescriptionMapping, bool) {
	jd, ok := s.journalDescs[description]
	return jd, ok
}

// IncludeInCost reports whether a transaction type counts toward allocatable
// cost. Unknown types are included: only explicitly flagged types (tax, net
// pay) are excluded.
func (s *Snapshot) IncludeInCost(txType string) bool {
	tt, ok := s.txTypes[txType]
	if !ok {
		return true
	}
	return tt.IncludeInCost
}

// IncludeInGross reports whether a pay component counts toward paid gross.
// Superannuation components are mapped with include_in_gross=false so the
// cost comparison excludes the on-cost. Unknown components are included.
func (s *Snapshot) IncludeInGross(component string) bool {
	pc, ok := s.payComponents[component]
	if !ok {
		return true
	}
	return pc.IncludeInGross
}

// LookupEmployee resolves an employee-master record by code.
func (s *Snapshot) LookupEmployee(code string) (models.Employee, bool) {
	e, ok := s.employees[code]
	return e, ok
}

// Employees returns every employee in the snapshot.
func (s *Snapshot) Employees() []models.Employee {
	out := make([]models.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	return out
}
