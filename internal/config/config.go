// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Restock   RestockConfig
	Scheduler SchedulerConfig
	Payments  PaymentsConfig
	Drive     DriveConfig
	Notify    NotifyConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the connection string used by both the lib/pq and pgx drivers.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AppConfig struct {
	DataDir string
	// InventorySource is "db", "file" or "drive".
	InventorySource string
	InventoryFile   string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// RestockConfig holds the engine defaults. A saved agent config overrides them.
type RestockConfig struct {
	MonthlyBudget       int64
	BufferDays          int
	MinDemandThreshold  int64
	CycleBudgetRatio    float64
	PriorityBudgetSplit map[string]float64
	SupplierBudgetSplit map[string]float64
	SupplierAddressMap  map[string]string
	CooldownDays        int
	CriticalStockDays   int
	MaxActiveSKUs       int
	PaymentTTLMinutes   int
	ConversionRate      int64
	TokenDecimals       int32
	Token               string
	ForecastHorizonDays int
}

type SchedulerConfig struct {
	Enabled         bool
	Spec            string
	ExecutePayments bool
}

type PaymentsConfig struct {
	Live           bool
	SessionAddress string
	MaxPerCycle    int
	// Whitelist adds approved addresses on top of the supplier address map.
	Whitelist []string
}

type DriveConfig struct {
	Enabled         bool
	CredentialsPath string
	FolderID        string
}

type NotifyConfig struct {
	Redis   bool
	Channel string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_DATA_DIR"))

		cfg, err := build(viper.GetViper())
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		instance = cfg
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	d := restock.DefaultSettings()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockeasy")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("APP_DATA_DIR", "./data")
	v.SetDefault("APP_INVENTORY_SOURCE", "db")
	v.SetDefault("APP_INVENTORY_FILE", "./data/owner_inventory.csv")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_BUCKET", "stockeasy-reports")
	v.SetDefault("STORAGE_USE_SSL", true)

	v.SetDefault("RESTOCK_MONTHLY_BUDGET", d.MonthlyBudget)
	v.SetDefault("RESTOCK_BUFFER_DAYS", d.BufferDays)
	v.SetDefault("RESTOCK_MIN_DEMAND_THRESHOLD", d.MinDemandThreshold)
	v.SetDefault("RESTOCK_CYCLE_BUDGET_RATIO", d.CycleBudgetRatio)
	v.SetDefault("RESTOCK_PRIORITY_BUDGET_SPLIT", formatPairs(d.PriorityBudgetSplit))
	v.SetDefault("RESTOCK_SUPPLIER_BUDGET_SPLIT", formatPairs(d.SupplierBudgetSplit))
	v.SetDefault("RESTOCK_SUPPLIER_ADDRESSES", formatPairs(d.SupplierAddressMap))
	v.SetDefault("RESTOCK_COOLDOWN_DAYS", d.CooldownDays)
	v.SetDefault("RESTOCK_CRITICAL_STOCK_DAYS", d.CriticalStockDays)
	v.SetDefault("RESTOCK_MAX_ACTIVE_SKUS", d.MaxActiveSKUs)
	v.SetDefault("RESTOCK_PAYMENT_TTL_MINUTES", d.PaymentTTLMinutes)
	v.SetDefault("RESTOCK_CONVERSION_RATE", d.ConversionRate)
	v.SetDefault("RESTOCK_TOKEN_DECIMALS", d.TokenDecimals)
	v.SetDefault("RESTOCK_TOKEN", d.Token)
	v.SetDefault("RESTOCK_FORECAST_HORIZON_DAYS", 7)

	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("SCHEDULER_SPEC", "@every 24h")
	v.SetDefault("SCHEDULER_EXECUTE_PAYMENTS", false)
	v.SetDefault("PAYMENTS_LIVE", false)
	v.SetDefault("PAYMENTS_MAX_PER_CYCLE", 1)
	v.SetDefault("PAYMENTS_WHITELIST", "")
	v.SetDefault("DRIVE_ENABLED", false)
	v.SetDefault("NOTIFY_REDIS", false)
	v.SetDefault("NOTIFY_CHANNEL", "restock:events")
}

func build(v *viper.Viper) (*Config, error) {
	priority, err := parseFloatPairs(v.GetString("RESTOCK_PRIORITY_BUDGET_SPLIT"))
	if err != nil {
		return nil, fmt.Errorf("RESTOCK_PRIORITY_BUDGET_SPLIT: %w", err)
	}
	suppliers, err := parseFloatPairs(v.GetString("RESTOCK_SUPPLIER_BUDGET_SPLIT"))
	if err != nil {
		return nil, fmt.Errorf("RESTOCK_SUPPLIER_BUDGET_SPLIT: %w", err)
	}
	addresses, err := parsePairs(v.GetString("RESTOCK_SUPPLIER_ADDRESSES"))
	if err != nil {
		return nil, fmt.Errorf("RESTOCK_SUPPLIER_ADDRESSES: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			DataDir:         v.GetString("APP_DATA_DIR"),
			InventorySource: strings.ToLower(v.GetString("APP_INVENTORY_SOURCE")),
			InventoryFile:   v.GetString("APP_INVENTORY_FILE"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Restock: RestockConfig{
			MonthlyBudget:       v.GetInt64("RESTOCK_MONTHLY_BUDGET"),
			BufferDays:          v.GetInt("RESTOCK_BUFFER_DAYS"),
			MinDemandThreshold:  v.GetInt64("RESTOCK_MIN_DEMAND_THRESHOLD"),
			CycleBudgetRatio:    v.GetFloat64("RESTOCK_CYCLE_BUDGET_RATIO"),
			PriorityBudgetSplit: priority,
			SupplierBudgetSplit: suppliers,
			SupplierAddressMap:  addresses,
			CooldownDays:        v.GetInt("RESTOCK_COOLDOWN_DAYS"),
			CriticalStockDays:   v.GetInt("RESTOCK_CRITICAL_STOCK_DAYS"),
			MaxActiveSKUs:       v.GetInt("RESTOCK_MAX_ACTIVE_SKUS"),
			PaymentTTLMinutes:   v.GetInt("RESTOCK_PAYMENT_TTL_MINUTES"),
			ConversionRate:      v.GetInt64("RESTOCK_CONVERSION_RATE"),
			TokenDecimals:       v.GetInt32("RESTOCK_TOKEN_DECIMALS"),
			Token:               v.GetString("RESTOCK_TOKEN"),
			ForecastHorizonDays: v.GetInt("RESTOCK_FORECAST_HORIZON_DAYS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:         v.GetBool("SCHEDULER_ENABLED"),
			Spec:            v.GetString("SCHEDULER_SPEC"),
			ExecutePayments: v.GetBool("SCHEDULER_EXECUTE_PAYMENTS"),
		},
		Payments: PaymentsConfig{
			Live:           v.GetBool("PAYMENTS_LIVE"),
			SessionAddress: v.GetString("PAYMENTS_SESSION_ADDRESS"),
			MaxPerCycle:    v.GetInt("PAYMENTS_MAX_PER_CYCLE"),
			Whitelist:      splitList(v.GetString("PAYMENTS_WHITELIST")),
		},
		Drive: DriveConfig{
			Enabled:         v.GetBool("DRIVE_ENABLED"),
			CredentialsPath: v.GetString("DRIVE_CREDENTIALS_PATH"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
		Notify: NotifyConfig{
			Redis:   v.GetBool("NOTIFY_REDIS"),
			Channel: v.GetString("NOTIFY_CHANNEL"),
		},
	}, nil
}

// RestockSettings converts the env defaults into engine settings.
func (c RestockConfig) RestockSettings() restock.Settings {
	return restock.Settings{
		MonthlyBudget:       c.MonthlyBudget,
		BufferDays:          c.BufferDays,
		MinDemandThreshold:  c.MinDemandThreshold,
		CycleBudgetRatio:    c.CycleBudgetRatio,
		PriorityBudgetSplit: c.PriorityBudgetSplit,
		SupplierBudgetSplit: c.SupplierBudgetSplit,
		SupplierAddressMap:  c.SupplierAddressMap,
		CooldownDays:        c.CooldownDays,
		CriticalStockDays:   c.CriticalStockDays,
		MaxActiveSKUs:       c.MaxActiveSKUs,
		PaymentTTLMinutes:   c.PaymentTTLMinutes,
		ConversionRate:      c.ConversionRate,
		TokenDecimals:       c.TokenDecimals,
		Token:               c.Token,
	}
}

// parsePairs reads "K1=V1,K2=V2".
func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range splitList(s) {
		k, val, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("malformed pair %q", item)
		}
		out[k] = strings.TrimSpace(val)
	}
	return out, nil
}

func parseFloatPairs(s string) (map[string]float64, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(pairs))
	for k, raw := range pairs {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

func formatPairs[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
