package config

import (
	logger "github.com/Bparsons0904/goLogger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`

	// Civil timezone for all day/week/month boundaries, as a UTC offset in
	// minutes. Defaults to UTC+9.
	CivilOffsetMinutes int `mapstructure:"CIVIL_OFFSET_MINUTES"`

	PhotoRetentionDays  int  `mapstructure:"PHOTO_RETENTION_DAYS"`
	PhotoPurgeBatchSize int  `mapstructure:"PHOTO_PURGE_BATCH_SIZE"`
	SchedulerEnabled    bool `mapstructure:"SCHEDULER_ENABLED"`

	SMSVendorURL string `mapstructure:"SMS_VENDOR_URL"`
	SMSVendorKey string `mapstructure:"SMS_VENDOR_KEY"`

	AdminAPIKey string `mapstructure:"ADMIN_API_KEY"`
}

var ConfigInstance Config

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
		"CORS_ALLOW_ORIGINS",
		"CIVIL_OFFSET_MINUTES",
		"PHOTO_RETENTION_DAYS", "PHOTO_PURGE_BATCH_SIZE", "SCHEDULER_ENABLED",
		"SMS_VENDOR_URL", "SMS_VENDOR_KEY",
		"ADMIN_API_KEY",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	viper.SetDefault("CIVIL_OFFSET_MINUTES", 540)
	viper.SetDefault("PHOTO_RETENTION_DAYS", 90)
	viper.SetDefault("PHOTO_PURGE_BATCH_SIZE", 500)

	if viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST") {
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

	log.Info("Successfully initialized config", "environment", config.Environment)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error("Fatal error: invalid server port", "port", config.ServerPort)
	}

	if config.PhotoRetentionDays <= 0 {
		return log.Error(
			"Fatal error: photo retention must be positive",
			"days", config.PhotoRetentionDays,
		)
	}

	if config.AdminAPIKey == "" {
		return log.Error("Fatal error: admin API key is required")
	}

	if config.PhotoPurgeBatchSize <= 0 {
		return log.Error(
			"Fatal error: photo purge batch size must be positive",
			"batchSize", config.PhotoPurgeBatchSize,
		)
	}

	ConfigInstance = config
	return nil
}
