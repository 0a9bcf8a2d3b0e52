package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"colony-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Colony    ColonyConfig
}

type RedisConfig struct {
	Enabled   bool
	URL       string
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type ServerConfig struct {
	Port         string
	URL          string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
	CookieSecure    bool
	CookieSameSite  string
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

type ColonyConfig struct {
	GridSize            int
	StorageCapacity     int
	UpkeepPerModule     int
	ProductionInterval  time.Duration
	ConsumptionInterval time.Duration
	DroneCooldown       time.Duration
	HazardPolicy        string
	CatalogPath         string
	LogLimit            int
	DriverInterval      time.Duration
	SnapshotTTL         time.Duration
	MaxSessions         int
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads the configuration from the environment without touching
// GlobalConfig.
func Load() (*Config, error) {
	config, err := load()
	if err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Auth:      loadAuthConfig(),
		Frontend:  loadFrontendConfig(),
		Logging:   loadLoggingConfig(),
		RateLimit: loadRateLimitConfig(),
		Colony:    loadColonyConfig(),
	}

	return config, nil
}

func loadRedisConfig() RedisConfig {
	enabled := utils.GetEnv("REDIS_ENABLED", "true") == "true"
	redisURL := utils.GetEnv("REDIS_URL", "")

	db, _ := strconv.Atoi(utils.GetEnv("REDIS_DB", "0"))

	return RedisConfig{
		Enabled:   enabled,
		URL:       redisURL,
		Host:      utils.GetEnv("REDIS_HOST", "localhost"),
		Port:      utils.GetEnv("REDIS_PORT", "6379"),
		Password:  utils.GetEnv("REDIS_PASSWORD", ""),
		DB:        db,
		KeyPrefix: utils.GetEnv("REDIS_KEY_PREFIX", "colony:"),
	}
}

func loadServerConfig() ServerConfig {
	readTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_READ_TIMEOUT_SECONDS", "15"))
	writeTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_WRITE_TIMEOUT_SECONDS", "15"))
	idleTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_IDLE_TIMEOUT_SECONDS", "60"))

	return ServerConfig{
		Port:         utils.GetEnv("SERVER_PORT", "8080"),
		URL:          utils.GetEnv("SERVER_URL", "http://localhost:8080"),
		Environment:  utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
		IdleTimeout:  time.Duration(idleTimeout) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	maxOpenConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_IDLE_CONNS", "5"))
	connMaxLifetime, _ := strconv.Atoi(utils.GetEnv("DB_CONN_MAX_LIFETIME_MINUTES", "5"))

	return DatabaseConfig{
		Enabled:         utils.GetEnv("DB_ENABLED", "true") == "true",
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "colony"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadAuthConfig() AuthConfig {
	tokenExpiration, _ := strconv.Atoi(utils.GetEnv("JWT_EXPIRATION_HOURS", "24"))

	environment := utils.GetEnv("ENVIRONMENT", "development")
	cookieSecure := environment == "production"

	return AuthConfig{
		JWTSecret:       utils.GetEnv("JWT_SECRET", ""),
		TokenExpiration: time.Duration(tokenExpiration) * time.Hour,
		CookieSecure:    cookieSecure,
		CookieSameSite:  utils.GetEnv("COOKIE_SAME_SITE", "lax"),
	}
}

func loadFrontendConfig() FrontendConfig {
	corsDebug := utils.GetEnv("CORS_DEBUG", "") == "true"

	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: corsDebug,
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	jsonFormat := environment == "production" || utils.GetEnv("LOG_FORMAT", "text") == "json"

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		Format:     utils.GetEnv("LOG_FORMAT", "text"),
		JSONFormat: jsonFormat,
	}
}

func loadRateLimitConfig() RateLimitConfig {
	enabled := utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true"
	requestsPerSecond, _ := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"), 64)
	burstSize, _ := strconv.Atoi(utils.GetEnv("RATE_LIMIT_BURST_SIZE", "20"))

	return RateLimitConfig{
		Enabled:           enabled,
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burstSize,
		TrustProxy:        utils.GetEnv("RATE_LIMIT_TRUST_PROXY", "false") == "true",
	}
}

func loadColonyConfig() ColonyConfig {
	gridSize, _ := strconv.Atoi(utils.GetEnv("COLONY_GRID_SIZE", "10"))
	storage, _ := strconv.Atoi(utils.GetEnv("COLONY_STORAGE_CAPACITY", "90"))
	upkeep, _ := strconv.Atoi(utils.GetEnv("COLONY_UPKEEP_PER_MODULE", "1"))
	production, _ := strconv.Atoi(utils.GetEnv("COLONY_PRODUCTION_INTERVAL_SECONDS", "5"))
	consumption, _ := strconv.Atoi(utils.GetEnv("COLONY_CONSUMPTION_INTERVAL_SECONDS", "10"))
	cooldown, _ := strconv.Atoi(utils.GetEnv("COLONY_DRONE_COOLDOWN_MS", "1000"))
	logLimit, _ := strconv.Atoi(utils.GetEnv("COLONY_LOG_LIMIT", "200"))
	driver, _ := strconv.Atoi(utils.GetEnv("COLONY_DRIVER_INTERVAL_MS", "250"))
	ttl, _ := strconv.Atoi(utils.GetEnv("COLONY_SNAPSHOT_TTL_MINUTES", "60"))
	maxSessions, _ := strconv.Atoi(utils.GetEnv("COLONY_MAX_SESSIONS", "1000"))

	return ColonyConfig{
		GridSize:            gridSize,
		StorageCapacity:     storage,
		UpkeepPerModule:     upkeep,
		ProductionInterval:  time.Duration(production) * time.Second,
		ConsumptionInterval: time.Duration(consumption) * time.Second,
		DroneCooldown:       time.Duration(cooldown) * time.Millisecond,
		HazardPolicy:        utils.GetEnv("COLONY_HAZARD_POLICY", "both"),
		CatalogPath:         utils.GetEnv("COLONY_CATALOG_PATH", ""),
		LogLimit:            logLimit,
		DriverInterval:      time.Duration(driver) * time.Millisecond,
		SnapshotTTL:         time.Duration(ttl) * time.Minute,
		MaxSessions:         maxSessions,
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.Enabled && c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Colony.GridSize < 1 {
		return fmt.Errorf("COLONY_GRID_SIZE must be positive")
	}

	if c.Colony.ProductionInterval <= 0 || c.Colony.ConsumptionInterval <= 0 {
		return fmt.Errorf("colony tick intervals must be positive")
	}

	if c.Colony.DroneCooldown < 0 {
		return fmt.Errorf("COLONY_DRONE_COOLDOWN_MS must not be negative")
	}

	if c.Colony.DriverInterval <= 0 {
		return fmt.Errorf("COLONY_DRIVER_INTERVAL_MS must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(c.Colony.HazardPolicy)) {
	case "", "none", "destroy", "drain", "both":
	default:
		return fmt.Errorf("COLONY_HAZARD_POLICY: unknown hazard policy %q", c.Colony.HazardPolicy)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
