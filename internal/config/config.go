// internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type     string // "postgres" or "mongodb"
	URI      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	JWTSecret      string
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// LoadConfig loads configuration from a .env file (if present) and the
// environment, applying defaults for anything unset.
func LoadConfig() (*Config, error) {
	// Silent failure if no .env exists, which is fine.
	_ = godotenv.Load()

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("METRICS_ENABLED", true)

	viper.SetDefault("DB_TYPE", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_NAME", "ripple")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")

	viper.SetDefault("JWT_SECRET", "ripple_dev_secret_change_me")
	viper.SetDefault("ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	serverConfig := &ServerConfig{
		Host:           viper.GetString("HOST"),
		Port:           viper.GetInt("PORT"),
		MetricsEnabled: viper.GetBool("METRICS_ENABLED"),
	}

	dbConfig := &DatabaseConfig{
		Type:     viper.GetString("DB_TYPE"),
		Host:     viper.GetString("DB_HOST"),
		Port:     viper.GetInt("DB_PORT"),
		User:     viper.GetString("DB_USER"),
		Password: viper.GetString("DB_PASSWORD"),
		Name:     viper.GetString("DB_NAME"),
		SSLMode:  viper.GetString("DB_SSL_MODE"),
	}

	switch dbConfig.Type {
	case "postgres":
		// Prioritize DATABASE_URL if provided
		if uri := viper.GetString("DATABASE_URL"); uri != "" {
			dbConfig.URI = uri
		} else {
			if dbConfig.User == "" {
				return nil, fmt.Errorf("DB_USER is required when DB_TYPE is postgres and DATABASE_URL is not set")
			}
			dbConfig.URI = fmt.Sprintf(
				"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
				dbConfig.User,
				dbConfig.Password,
				dbConfig.Host,
				dbConfig.Port,
				dbConfig.Name,
				dbConfig.SSLMode,
			)
		}
	case "mongodb":
		dbConfig.URI = viper.GetString("MONGODB_URI")
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (expected postgres or mongodb)", dbConfig.Type)
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		JWTSecret:      viper.GetString("JWT_SECRET"),
		AllowedOrigins: strings.Split(viper.GetString("ALLOWED_ORIGINS"), ","),
		Debug:          viper.GetBool("DEBUG"),
	}

	return config, nil
}
