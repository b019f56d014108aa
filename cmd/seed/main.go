package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/andresuchdata/stockeasy/internal/config"
	"github.com/andresuchdata/stockeasy/internal/forecast"
	"github.com/andresuchdata/stockeasy/internal/payment"
	"github.com/andresuchdata/stockeasy/internal/repository/postgres"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/andresuchdata/stockeasy/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	sqlDB, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := sqlDB.PingContext(c.Context); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db := postgres.Wrap(sqlDB, "pgx")
	if err := db.EnsureSchema(c.Context); err != nil {
		sqlDB.Close()
		return err
	}
	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *postgres.DB {
	return c.Context.Value(dbKey{}).(*postgres.DB)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load restock data and run cycles against the database",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the restock tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					log.Println("Schema is up to date")
					return nil
				},
			},
			{
				Name:  "inventory",
				Usage: "Replace the owner inventory with a CSV or XLSX export",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "Owner inventory export",
						Value:   "./data/owner_inventory.csv",
						EnvVars: []string{"APP_INVENTORY_FILE"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedInventory,
			},
			{
				Name:  "suppliers",
				Usage: "Replace supplier catalogs from CSV or XLSX exports",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringSliceFlag{
						Name:     "file",
						Usage:    "Supplier export; repeat for several suppliers",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "supplier-from-filename",
						Usage: "Use the file name (SUP1.csv -> SUP1) as supplier id instead of the supplier_id column",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedSuppliers,
			},
			{
				Name:   "config",
				Usage:  "Store the agent config built from environment defaults",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: seedConfig,
			},
			{
				Name:  "cycle",
				Usage: "Run one restock cycle and print its report",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.BoolFlag{
						Name:  "execute-payments",
						Usage: "Pay for the cycle's decisions (demo transfers)",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runCycle,
			},
			{
				Name:  "archive",
				Usage: "List archived cycle reports, or print one by key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "day",
						Usage: "Day prefix to list, e.g. 2026/10 or 2026/10/17",
					},
					&cli.StringFlag{
						Name:  "key",
						Usage: "Object key of a report to print",
					},
				},
				Action: showArchive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestService(db *postgres.DB) *service.IngestService {
	return service.NewIngestService(postgres.NewInventoryRepository(db), postgres.NewCatalogRepository(db), nil)
}

func seedInventory(c *cli.Context) error {
	path := c.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	n, err := ingestService(dbFrom(c)).ImportInventory(c.Context, filepath.Base(path), f)
	if err != nil {
		return err
	}
	log.Printf("Imported %d inventory rows from %s", n, path)
	return nil
}

func seedSuppliers(c *cli.Context) error {
	svc := ingestService(dbFrom(c))
	for _, path := range c.StringSlice("file") {
		supplierID := ""
		if c.Bool("supplier-from-filename") {
			supplierID = supplierFromFilename(path)
		}
		if err := importOffers(c.Context, svc, supplierID, path); err != nil {
			return err
		}
	}
	return nil
}

func importOffers(ctx context.Context, svc *service.IngestService, supplierID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	n, err := svc.ImportOffers(ctx, supplierID, filepath.Base(path), f)
	if err != nil {
		return err
	}
	log.Printf("Imported %d offers from %s", n, path)
	return nil
}

func supplierFromFilename(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func seedConfig(c *cli.Context) error {
	cfg := config.Load()
	svc := service.NewRestockService(service.Deps{
		Configs:  postgres.NewAgentConfigRepository(dbFrom(c)),
		Defaults: cfg.Restock.RestockSettings(),
	})
	saved, err := svc.SaveSettings(c.Context, cfg.Restock.RestockSettings())
	if err != nil {
		return err
	}
	log.Printf("Stored agent config: monthly budget %d, %d supplier(s)", saved.MonthlyBudget, len(saved.SupplierBudgetSplit))
	return nil
}

func runCycle(c *cli.Context) error {
	cfg := config.Load()
	db := dbFrom(c)
	catalog := postgres.NewCatalogRepository(db)
	txs := postgres.NewTransactionRepository(db)

	engine := restock.NewEngine(
		postgres.NewInventoryRepository(db),
		forecast.NewVelocityForecaster(forecast.WithHorizon(cfg.Restock.ForecastHorizonDays)),
		catalog,
	)
	svc := service.NewRestockService(service.Deps{
		Engine:       engine,
		Configs:      postgres.NewAgentConfigRepository(db),
		Cycles:       postgres.NewCycleRepository(db),
		Transactions: txs,
		Payments:     payment.NewExecutor(payment.DemoTransferer{}, catalog, txs, payment.WithMaxPerCycle(cfg.Payments.MaxPerCycle)),
		Defaults:     cfg.Restock.RestockSettings(),
		Whitelist:    cfg.Payments.Whitelist,
	})
	if err := svc.Restore(c.Context); err != nil {
		return err
	}

	result, err := svc.Run(c.Context, c.Bool("execute-payments"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func showArchive(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return fmt.Errorf("object storage is disabled; set STORAGE_ENABLED=true")
	}
	store, err := storage.NewMinioClient(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return err
	}
	archiver := storage.NewReportArchiver(store)

	if key := c.String("key"); key != "" {
		report, err := archiver.Load(c.Context, key)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	keys, err := archiver.Keys(c.Context, c.String("day"))
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	log.Printf("%d archived report(s)", len(keys))
	return nil
}
