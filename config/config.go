package config

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion   string `mapstructure:"GENERAL_VERSION"`
	Environment      string `mapstructure:"ENVIRONMENT"`
	ServerPort       int    `mapstructure:"SERVER_PORT"`
	CorsAllowOrigins string `mapstructure:"CORS_ALLOW_ORIGINS"`

	DatabaseHost     string `mapstructure:"DB_HOST"`
	DatabasePort     int    `mapstructure:"DB_PORT"`
	DatabaseName     string `mapstructure:"DB_NAME"`
	DatabaseUser     string `mapstructure:"DB_USER"`
	DatabasePassword string `mapstructure:"DB_PASSWORD"`

	StorageEndpoint  string `mapstructure:"STORAGE_ENDPOINT"`
	StorageRegion    string `mapstructure:"STORAGE_REGION"`
	StorageAccessKey string `mapstructure:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `mapstructure:"STORAGE_SECRET_KEY"`
	StorageBucket    string `mapstructure:"STORAGE_BUCKET"`

	ScratchDir       string `mapstructure:"SCRATCH_DIR"`
	SchedulerEnabled bool   `mapstructure:"SCHEDULER_ENABLED"`
	IngestChains     string `mapstructure:"INGEST_CHAINS"`

	DiscoverMaxPages      int  `mapstructure:"DISCOVER_MAX_PAGES"`
	DiscoverMaxFiles      int  `mapstructure:"DISCOVER_MAX_FILES"`
	DiscoverPageTimeoutMS int  `mapstructure:"DISCOVER_PAGE_TIMEOUT_MS"`
	DiscoverRetries       int  `mapstructure:"DISCOVER_RETRIES"`
	DiscoverBaseDelayMS   int  `mapstructure:"DISCOVER_BASE_DELAY_MS"`
	DiscoverMaxDelayMS    int  `mapstructure:"DISCOVER_MAX_DELAY_MS"`
	DiscoverFailFast      bool `mapstructure:"DISCOVER_FAIL_FAST"`
	DiscoverDebug         bool `mapstructure:"DISCOVER_DEBUG"`

	ForceReprocess  bool `mapstructure:"FORCE_REPROCESS"`
	MaxItemsPerFile int  `mapstructure:"MAX_ITEMS_PER_FILE"`
	LoadBatchSize   int  `mapstructure:"LOAD_BATCH_SIZE"`
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "CORS_ALLOW_ORIGINS",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"STORAGE_ENDPOINT", "STORAGE_REGION", "STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "STORAGE_BUCKET",
		"SCRATCH_DIR", "SCHEDULER_ENABLED", "INGEST_CHAINS",
		"DISCOVER_MAX_PAGES", "DISCOVER_MAX_FILES", "DISCOVER_PAGE_TIMEOUT_MS",
		"DISCOVER_RETRIES", "DISCOVER_BASE_DELAY_MS", "DISCOVER_MAX_DELAY_MS",
		"DISCOVER_FAIL_FAST", "DISCOVER_DEBUG",
		"FORCE_REPROCESS", "MAX_ITEMS_PER_FILE", "LOAD_BATCH_SIZE",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	setDefaults()

	// Environment variables win; the .env files only fill gaps for
	// local development.
	if viper.IsSet("DB_HOST") {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info("Successfully initialized config",
		"environment", config.Environment,
		"chains", config.IngestChains,
		"schedulerEnabled", config.SchedulerEnabled,
	)
	return config, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_BUCKET", "raw-prices")
	viper.SetDefault("SCRATCH_DIR", ".scratch")
	viper.SetDefault("INGEST_CHAINS", "shufersal")

	viper.SetDefault("DISCOVER_MAX_PAGES", 10)
	viper.SetDefault("DISCOVER_MAX_FILES", 200)
	viper.SetDefault("DISCOVER_PAGE_TIMEOUT_MS", 60_000)
	viper.SetDefault("DISCOVER_RETRIES", 4)
	viper.SetDefault("DISCOVER_BASE_DELAY_MS", 500)
	viper.SetDefault("DISCOVER_MAX_DELAY_MS", 8_000)

	viper.SetDefault("LOAD_BATCH_SIZE", 500)
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error("Fatal error: invalid server port", "port", config.ServerPort)
	}
	if config.DiscoverMaxPages <= 0 {
		return log.Error("Fatal error: invalid discovery page cap", "pages", config.DiscoverMaxPages)
	}
	if config.LoadBatchSize <= 0 {
		return log.Error("Fatal error: invalid load batch size", "batchSize", config.LoadBatchSize)
	}
	if config.StorageBucket == "" {
		return log.ErrMsg("Fatal error: STORAGE_BUCKET is required")
	}

	return nil
}
