package config

import (
	"os"
	"strconv"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort   string
	UploadPath   string
	MaxFileSize  int64
	LogLevel     string
	LogFormat    string
	TemplatePath string
	DataDir      string
	OCRLanguage  string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:   getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		UploadPath:   getEnvOrDefault("UPLOAD_PATH", "./uploads"),
		MaxFileSize:  getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "console"),
		TemplatePath: getEnvOrDefault("TEMPLATE_PATH", "./templates/german_clinical_default.json"),
		DataDir:      getEnvOrDefault("DATA_DIR", "./data"),
		OCRLanguage:  getEnvOrDefault("OCR_LANGUAGE", "deu"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetUploadPath returns the upload directory path
func (c *AppConfig) GetUploadPath() string {
	return c.UploadPath
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns the log output format (console or json)
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetTemplatePath returns the path of the default anonymization template
func (c *AppConfig) GetTemplatePath() string {
	return c.TemplatePath
}

// GetDataDir returns the directory holding the city and facility databases
func (c *AppConfig) GetDataDir() string {
	return c.DataDir
}

// GetOCRLanguage returns the tesseract language code
func (c *AppConfig) GetOCRLanguage() string {
	return c.OCRLanguage
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
