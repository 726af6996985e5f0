package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Archive closure policies.
const (
	ArchivePolicyFull = "full"
	ArchivePolicyFIFO = "fifo"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Rules       RulesConfig
	Archive     ArchiveConfig
	Permissions PermissionsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig describes how bearer tokens issued by the identity provider are verified.
// When PublicKeyPEM is set tokens are expected to be RS256, otherwise HS256 with Secret.
type JWTConfig struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ArchiveConfig controls semester closure.
type ArchiveConfig struct {
	Policy              string
	MigrationBufferSize int
	DebtSweepInterval   time.Duration
}

// PermissionsConfig tunes the teacher permission cache.
type PermissionsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:       v.GetString("JWT_SECRET"),
		PublicKeyPEM: v.GetString("JWT_PUBLIC_KEY"),
		Issuer:       v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Rules = RulesConfig{
		RequiredPointAmount:          v.GetInt("RULES_REQUIRED_POINT_AMOUNT"),
		MaxPointsForStandards:        v.GetInt("RULES_MAX_POINTS_FOR_STANDARDS"),
		MaxPointsAmount:              v.GetInt("RULES_MAX_POINTS_AMOUNT"),
		MaxPointsForExternalFitness:  v.GetInt("RULES_MAX_POINTS_FOR_EXTERNAL_FITNESS"),
		MaxPointsForScience:          v.GetInt("RULES_MAX_POINTS_FOR_SCIENCE"),
		MaxPointsForOneStandard:      v.GetInt("RULES_MAX_POINTS_FOR_ONE_STANDARD"),
		MinTotalPointsToAddStandards: v.GetInt("RULES_MIN_TOTAL_POINTS_TO_ADD_STANDARDS"),

		MaxPointsForOneStandardUpperCourses: v.GetInt("RULES_MAX_POINTS_FOR_ONE_STANDARD_UPPER_COURSES"),

		PointsLifeDays:           v.GetInt("RULES_POINTS_LIFE_DAYS"),
		OnlineWorkPointsLifeDays: v.GetInt("RULES_ONLINE_WORK_POINTS_LIFE_DAYS"),
		VisitLifeDays:            v.GetInt("RULES_VISIT_LIFE_DAYS"),
		StandardLifeDays:         v.GetInt("RULES_STANDARD_LIFE_DAYS"),
		DaysToDeletePoints:       v.GetInt("RULES_DAYS_TO_DELETE_POINTS"),
		DaysToDeleteVisit:        v.GetInt("RULES_DAYS_TO_DELETE_VISIT"),
		DaysToDeleteStandard:     v.GetInt("RULES_DAYS_TO_DELETE_STANDARD"),
		Timezone:                 v.GetString("RULES_TIMEZONE"),
	}
	if path := v.GetString("RULES_FILE"); path != "" {
		if err := cfg.Rules.MergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Archive = ArchiveConfig{
		Policy:              strings.ToLower(v.GetString("ARCHIVE_POLICY")),
		MigrationBufferSize: v.GetInt("ARCHIVE_MIGRATION_BUFFER"),
		DebtSweepInterval:   parseDuration(v.GetString("ARCHIVE_DEBT_SWEEP_INTERVAL"), 24*time.Hour),
	}
	if cfg.Archive.Policy != ArchivePolicyFIFO {
		cfg.Archive.Policy = ArchivePolicyFull
	}

	cfg.Permissions = PermissionsConfig{
		CacheEnabled: v.GetBool("PERMISSIONS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("PERMISSIONS_CACHE_TTL"), 2*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "physed_journal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	defaults := DefaultRules()
	v.SetDefault("RULES_REQUIRED_POINT_AMOUNT", defaults.RequiredPointAmount)
	v.SetDefault("RULES_MAX_POINTS_FOR_STANDARDS", defaults.MaxPointsForStandards)
	v.SetDefault("RULES_MAX_POINTS_AMOUNT", defaults.MaxPointsAmount)
	v.SetDefault("RULES_MAX_POINTS_FOR_EXTERNAL_FITNESS", defaults.MaxPointsForExternalFitness)
	v.SetDefault("RULES_MAX_POINTS_FOR_SCIENCE", defaults.MaxPointsForScience)
	v.SetDefault("RULES_MAX_POINTS_FOR_ONE_STANDARD", defaults.MaxPointsForOneStandard)
	v.SetDefault("RULES_MIN_TOTAL_POINTS_TO_ADD_STANDARDS", defaults.MinTotalPointsToAddStandards)
	v.SetDefault("RULES_MAX_POINTS_FOR_ONE_STANDARD_UPPER_COURSES", defaults.MaxPointsForOneStandardUpperCourses)
	v.SetDefault("RULES_POINTS_LIFE_DAYS", defaults.PointsLifeDays)
	v.SetDefault("RULES_ONLINE_WORK_POINTS_LIFE_DAYS", defaults.OnlineWorkPointsLifeDays)
	v.SetDefault("RULES_VISIT_LIFE_DAYS", defaults.VisitLifeDays)
	v.SetDefault("RULES_STANDARD_LIFE_DAYS", defaults.StandardLifeDays)
	v.SetDefault("RULES_DAYS_TO_DELETE_POINTS", defaults.DaysToDeletePoints)
	v.SetDefault("RULES_DAYS_TO_DELETE_VISIT", defaults.DaysToDeleteVisit)
	v.SetDefault("RULES_DAYS_TO_DELETE_STANDARD", defaults.DaysToDeleteStandard)
	v.SetDefault("RULES_TIMEZONE", defaults.Timezone)
	v.SetDefault("RULES_FILE", "")

	v.SetDefault("ARCHIVE_POLICY", ArchivePolicyFull)
	v.SetDefault("ARCHIVE_MIGRATION_BUFFER", 4)
	v.SetDefault("ARCHIVE_DEBT_SWEEP_INTERVAL", "24h")

	v.SetDefault("PERMISSIONS_CACHE_ENABLED", true)
	v.SetDefault("PERMISSIONS_CACHE_TTL", "2m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
