package config

const (
	// DefaultDatabasePath is the default path for the reporting database
	DefaultDatabasePath = "./academic_program.db"

	// DefaultAsanaBaseURL is the Asana REST API root
	DefaultAsanaBaseURL = "https://app.asana.com/api/1.0"
)
