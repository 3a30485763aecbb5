package services

import (
	"fmt"

	"payroll-recon/internal/registry"
	"payroll-recon/internal/repositories"
)

// loadSnapshot reads every mapping table and the employee master once, so all
// employees in one run are judged against the same mapping version.
func loadSnapshot(mappingRepo repositories.MappingRepository, employeeRepo repositories.EmployeeRepository) (*registry.Snapshot, error) {
	locations, err := mappingRepo.GetLocationMappings()
	if err != nil {
		return nil, fmt.Errorf("failed to load location mappings: %v", err)
	}

	payComponents, err := mappingRepo.GetPayComponentMappings()
	if err != nil {
		return nil, fmt.Errorf("failed to load pay component mappings: %v", err)
	}

	splits, err := mappingRepo.GetSplitRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load split rules: %v", err)
	}

	journalDescs, err := mappingRepo.GetJournalDescriptionMappings()
	if err != nil {
		return nil, fmt.Errorf("failed to load journal description mappings: %v", err)
	}

	txTypes, err := mappingRepo.GetTransactionTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction types: %v", err)
	}

	employees, err := employeeRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %v", err)
	}

	return registry.NewSnapshot(locations, payComponents, splits, journalDescs, txTypes, employees), nil
}
