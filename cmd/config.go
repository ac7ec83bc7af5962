package cmd

import "time"

// Config carries the deployment settings read from the environment.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// RoutingCatalogPath points at a YAML routing catalog. Empty means the
	// compiled-in default catalog.
	RoutingCatalogPath string

	// PlantDataPath points at a YAML plant master data file (capacity,
	// stock, client risk). Empty means the compiled-in defaults.
	PlantDataPath string

	// EventSweepBatchSize bounds how many Open events one sweep re-drives.
	EventSweepBatchSize int

	// EventReaperStaleness is how old a Processing claim must be before the
	// reaper returns it to Open.
	EventReaperStaleness time.Duration
}
