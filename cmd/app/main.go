package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"production/cmd"
	"production/internal/adapters/out/plantconfig"
	"production/internal/adapters/out/postgres/auditrepo"
	"production/internal/adapters/out/postgres/eventrepo"
	"production/internal/adapters/out/postgres/insightrepo"
	"production/internal/adapters/out/postgres/orderrepo"
	"production/internal/adapters/out/postgres/steprepo"
	"production/internal/core/domain/model/routing"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultSweepBatchSize  = 100
	defaultReaperStaleness = 2 * time.Minute
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db := connectDB(configs)

	app := cmd.NewCompositionRoot(
		configs,
		db,
		loadCatalog(configs),
		loadPlantData(configs),
		logger,
	)

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(app, configs.HTTPPort)
}

func getConfigs() cmd.Config {
	return cmd.Config{
		HTTPPort:             goDotEnvVariable("HTTP_PORT"),
		DBHost:               goDotEnvVariable("DB_HOST"),
		DBPort:               goDotEnvVariable("DB_PORT"),
		DBUser:               goDotEnvVariable("DB_USER"),
		DBPassword:           goDotEnvVariable("DB_PASSWORD"),
		DBName:               goDotEnvVariable("DB_NAME"),
		DBSslMode:            goDotEnvVariable("DB_SSLMODE"),
		RoutingCatalogPath:   os.Getenv("ROUTING_CATALOG_PATH"),
		PlantDataPath:        os.Getenv("PLANT_DATA_PATH"),
		EventSweepBatchSize:  envInt("EVENT_SWEEP_BATCH_SIZE", defaultSweepBatchSize),
		EventReaperStaleness: envDuration("EVENT_REAPER_STALENESS", defaultReaperStaleness),
	}
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return value
}

func connectDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&steprepo.StepDTO{},
		&eventrepo.EventDTO{},
		&auditrepo.EntryDTO{},
		&insightrepo.InsightDTO{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// loadCatalog reads the routing catalog. A cyclic or malformed catalog
// kills the process here, before any order can reference it.
func loadCatalog(configs cmd.Config) *routing.Catalog {
	if configs.RoutingCatalogPath == "" {
		return routing.DefaultCatalog()
	}

	raw, err := os.ReadFile(configs.RoutingCatalogPath)
	if err != nil {
		log.Fatalf("Failed to read routing catalog: %v", err)
	}

	catalog, err := routing.ParseCatalog(raw)
	if err != nil {
		log.Fatalf("Failed to parse routing catalog: %v", err)
	}

	return catalog
}

func loadPlantData(configs cmd.Config) *plantconfig.Providers {
	if configs.PlantDataPath == "" {
		return plantconfig.Defaults()
	}

	raw, err := os.ReadFile(configs.PlantDataPath)
	if err != nil {
		log.Fatalf("Failed to read plant data: %v", err)
	}

	providers, err := plantconfig.Parse(raw)
	if err != nil {
		log.Fatalf("Failed to parse plant data: %v", err)
	}

	return providers
}

func startWebServer(app *cmd.CompositionRoot, port string) {
	e := echo.New()

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	app.CreateHTTPServer().RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
