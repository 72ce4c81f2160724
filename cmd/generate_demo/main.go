// Command generate_demo creates a demo database with sample universities and a
// history of daily snapshots, for working on the dashboard without Asana access.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db] [-days 120]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/academic-program/reporting-api/internal/database"
	"github.com/academic-program/reporting-api/internal/database/snapshots"
	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/entities"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoUniversity struct {
	name        string
	contact     string
	researchers int
	students    int
	hardware    []string
	// joinedDaysAgo is when the university first appears in the history
	joinedDaysAgo int
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	days := flag.Int("days", 120, "number of days of snapshot history to generate")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	catalog := demoUniversities()
	snapshotRepo := snapshots.NewRepository(db.DB)

	for daysAgo := *days; daysAgo >= 0; daysAgo-- {
		day := today.AddDate(0, 0, -daysAgo)
		active := activeOn(catalog, daysAgo, *days)

		date := day.Format(entities.DateLayout)
		if _, err := snapshotRepo.ReplaceForDate(date, active); err != nil {
			log.Fatalf("Failed to write snapshot for %s: %v", date, err)
		}

		if daysAgo == 0 {
			result, err := universities.NewRepository(db.DB).Reconcile(active, time.Now().UTC())
			if err != nil {
				log.Fatalf("Failed to write current state: %v", err)
			}
			log.Printf("Current state: %d universities", result.Inserted)
		}
	}

	log.Printf("Wrote %d snapshots", *days+1)
	log.Println("Demo database generated successfully!")
}

// activeOn returns the universities present daysAgo, with counts growing
// linearly from half their final size at the start of the history.
func activeOn(catalog []demoUniversity, daysAgo, totalDays int) []entities.University {
	progress := 1.0
	if totalDays > 0 {
		progress = 1 - float64(daysAgo)/float64(totalDays)
	}

	active := make([]entities.University, 0, len(catalog))
	for i, u := range catalog {
		if daysAgo > u.joinedDaysAgo {
			continue
		}
		scale := 0.5 + 0.5*progress
		contact := u.contact
		created := time.Now().UTC().AddDate(0, 0, -u.joinedDaysAgo)

		var hardware []string
		// hardware arrives a few weeks after joining
		if u.joinedDaysAgo-daysAgo >= 21 {
			hardware = u.hardware
		}

		active = append(active, entities.University{
			ExternalID:     demoGID(i),
			Name:           u.name,
			Researchers:    int(float64(u.researchers) * scale),
			Students:       int(float64(u.students) * scale),
			HardwareTypes:  hardware,
			PointOfContact: &contact,
			CreatedAt:      &created,
		})
	}
	return active
}

func demoGID(i int) string {
	return fmt.Sprintf("12000000000%04d", i+1)
}

func demoUniversities() []demoUniversity {
	return []demoUniversity{
		{"University of Toronto", "Prof. A. Chen", 14, 62, []string{"Wormhole", "Blackhole"}, 400},
		{"ETH Zurich", "Dr. M. Keller", 9, 35, []string{"Wormhole"}, 400},
		{"University of Michigan", "Prof. R. Alvarez", 11, 48, []string{"Grayskull"}, 300},
		{"TU Delft", "Dr. S. de Vries", 6, 22, nil, 200},
		{"Seoul National University", "Prof. J. Park", 12, 40, []string{"Blackhole"}, 150},
		{"University of Cambridge", "Dr. E. Hughes", 7, 18, []string{"Wormhole"}, 110},
		{"IIT Madras", "Prof. K. Raman", 10, 55, nil, 90},
		{"University of Texas at Austin", "Dr. L. Brooks", 8, 30, []string{"Wormhole", "Grayskull"}, 60},
		{"KAIST", "Prof. H. Kim", 5, 16, nil, 30},
		{"University of Waterloo", "Dr. P. Singh", 4, 12, nil, 7},
	}
}
