package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// MatchingConfig carries every reconciliation threshold. The GST rate and
// cash age threshold are deliberately configuration rather than constants:
// the business has run with both 2- and 3-year cash cutoffs.
type MatchingConfig struct {
	TargetPercent       float64
	AmountTolerance     decimal.Decimal
	AmountToleranceWide decimal.Decimal
	DateWindowDays      int
	DateWindowWideDays  int
	FuzzyWindowDays     int
	FuzzyWindowWideDays int
	BalanceWindowDays   int
	AccountPrefixLen    int
	CashAgeThreshold    time.Duration
	CashRoundAmountMax  decimal.Decimal
	CashKeywords        []string
	UnmatchedBatchLimit int
}

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	OperatorUsername     string
	OperatorPasswordHash string

	RateLimit string // ulule/limiter format, e.g. "60-M"

	GSTRate  decimal.Decimal
	Currency string

	Matching MatchingConfig
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "lms-backend")
	viper.SetDefault("OPERATOR_USERNAME", "dispatch")
	viper.SetDefault("OPERATOR_PASSWORD_HASH", "")
	viper.SetDefault("RATE_LIMIT", "60-M")
	viper.SetDefault("GST_RATE", "0.05") // AB flat rate
	viper.SetDefault("CURRENCY", "CAD")
	viper.SetDefault("MATCH_TARGET_PERCENT", 98.0)
	viper.SetDefault("MATCH_AMOUNT_TOLERANCE", "5")
	viper.SetDefault("MATCH_AMOUNT_TOLERANCE_WIDE", "10")
	viper.SetDefault("MATCH_DATE_WINDOW_DAYS", 90)
	viper.SetDefault("MATCH_DATE_WINDOW_WIDE_DAYS", 120)
	viper.SetDefault("MATCH_FUZZY_WINDOW_DAYS", 14)
	viper.SetDefault("MATCH_FUZZY_WINDOW_WIDE_DAYS", 180)
	viper.SetDefault("MATCH_BALANCE_WINDOW_DAYS", 60)
	viper.SetDefault("MATCH_ACCOUNT_PREFIX_LEN", 6)
	viper.SetDefault("CASH_AGE_THRESHOLD_MONTHS", 30)
	viper.SetDefault("CASH_ROUND_AMOUNT_MAX", "200")
	viper.SetDefault("CASH_KEYWORDS", []string{"cash", "till", "float"})
	viper.SetDefault("MATCH_UNMATCHED_BATCH_LIMIT", 50000)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiryDuration = jwtExpiry
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.OperatorUsername = viper.GetString("OPERATOR_USERNAME")
	cfg.OperatorPasswordHash = viper.GetString("OPERATOR_PASSWORD_HASH")
	if cfg.OperatorPasswordHash == "" {
		log.Println("Warning: OPERATOR_PASSWORD_HASH not set. Login will be rejected until configured.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.GSTRate = mustDecimal("GST_RATE", "0.05")
	cfg.Currency = viper.GetString("CURRENCY")

	cfg.Matching = MatchingConfig{
		TargetPercent:       viper.GetFloat64("MATCH_TARGET_PERCENT"),
		AmountTolerance:     mustDecimal("MATCH_AMOUNT_TOLERANCE", "5"),
		AmountToleranceWide: mustDecimal("MATCH_AMOUNT_TOLERANCE_WIDE", "10"),
		DateWindowDays:      viper.GetInt("MATCH_DATE_WINDOW_DAYS"),
		DateWindowWideDays:  viper.GetInt("MATCH_DATE_WINDOW_WIDE_DAYS"),
		FuzzyWindowDays:     viper.GetInt("MATCH_FUZZY_WINDOW_DAYS"),
		FuzzyWindowWideDays: viper.GetInt("MATCH_FUZZY_WINDOW_WIDE_DAYS"),
		BalanceWindowDays:   viper.GetInt("MATCH_BALANCE_WINDOW_DAYS"),
		AccountPrefixLen:    viper.GetInt("MATCH_ACCOUNT_PREFIX_LEN"),
		CashAgeThreshold:    time.Duration(viper.GetInt("CASH_AGE_THRESHOLD_MONTHS")) * 30 * 24 * time.Hour,
		CashRoundAmountMax:  mustDecimal("CASH_ROUND_AMOUNT_MAX", "200"),
		CashKeywords:        viper.GetStringSlice("CASH_KEYWORDS"),
		UnmatchedBatchLimit: viper.GetInt("MATCH_UNMATCHED_BATCH_LIMIT"),
	}

	return cfg, nil
}

func mustDecimal(key, fallback string) decimal.Decimal {
	raw := viper.GetString(key)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
