// Package database provides the data access layer for the reporting store.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── universities/    # Current-state mirror: reconcile, list, lookups
//	├── snapshots/       # Daily rollups and per-university line items
//	└── sync/            # Append-only sync run log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./academic_program.db")
//
//	unisRepo := universities.NewRepository(db.DB)
//	snapsRepo := snapshots.NewRepository(db.DB)
//	runsRepo := sync.NewRepository(db.DB)
//
//	rows, err := unisRepo.List(universities.ListFilter{SortBy: universities.SortByStudents})
//
// # Transactions
//
// Every repository exposes WithTx so the sync pipeline can run reconcile,
// snapshot and run finalization as one unit:
//
//	err := db.DB.Transaction(func(tx *gorm.DB) error {
//		if _, err := unisRepo.WithTx(tx).Reconcile(fetched, now); err != nil {
//			return err
//		}
//		...
//	})
//
// # Adding a New Domain
//
//  1. Create a new sub-package under internal/database/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register the entity in Models so it is migrated
//  5. Add compile-time interface check in internal/interfaces
package database
