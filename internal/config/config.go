package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server       ServerConfig
	Logger       LoggerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Plan         PlanConfig
	Seller       SellerConfig
	Subscription SubscriptionConfig
}

type ServerConfig struct {
	AppEnv  string
	Port    string
	AppName string
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type DatabaseConfig struct {
	Driver     string // postgres | sqlite
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
	TimeZone   string
}

type JWTConfig struct {
	Secret   string
	TTLHours int
}

type StorageConfig struct {
	SlipDir string
}

// PlanConfig is the single paid plan offered to every tenant.
type PlanConfig struct {
	Name       string
	Price      decimal.Decimal
	PeriodDays int
	TrialDays  int
	VATRate    decimal.Decimal
}

// SellerConfig is printed as the issuer block on invoices.
type SellerConfig struct {
	BusinessName string `json:"business_name"`
	TaxID        string `json:"tax_id"`
	Branch       string `json:"branch"`
	Address      string `json:"address"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

type SubscriptionConfig struct {
	// Enforced=false lets every authenticated request through the billing gate.
	Enforced bool
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:  getEnv("APP_ENV", "development"),
			Port:    getEnv("PORT", "3000"),
			AppName: getEnv("APP_NAME", "Cafe Stock v1.0"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", ""),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", ""),
			URL:        getEnv("DATABASE_URL", ""),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "cafe_stock"),
			SQLitePath: getEnv("SQLITE_PATH", "data/stock.db"),
			TimeZone:   getEnv("DB_TIMEZONE", "Asia/Bangkok"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TTLHours: getEnvInt("JWT_TTL_HOURS", 24),
		},
		Storage: StorageConfig{
			SlipDir: getEnv("SLIP_DIR", "data/slips"),
		},
		Plan: PlanConfig{
			Name:       getEnv("PLAN_NAME", "Cafe"),
			Price:      getEnvDecimal("PLAN_PRICE", decimal.NewFromInt(399)),
			PeriodDays: getEnvInt("PLAN_PERIOD_DAYS", 30),
			TrialDays:  getEnvInt("TRIAL_DAYS", 14),
			VATRate:    getEnvDecimal("VAT_RATE", decimal.NewFromFloat(0.07)),
		},
		Seller: SellerConfig{
			BusinessName: getEnv("SELLER_BUSINESS_NAME", "Cafe Stock Co., Ltd."),
			TaxID:        getEnv("SELLER_TAX_ID", "-"),
			Branch:       getEnv("SELLER_BRANCH", "Head Office"),
			Address:      getEnv("SELLER_ADDRESS", "-"),
			Email:        getEnv("SELLER_EMAIL", "support@example.com"),
			Phone:        getEnv("SELLER_PHONE", "-"),
		},
		Subscription: SubscriptionConfig{
			Enforced: getEnvBool("SUBSCRIPTION_ENFORCED", true),
		},
	}
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.AppEnv, "development") || strings.EqualFold(c.Server.AppEnv, "dev")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}
