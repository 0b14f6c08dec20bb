package config

import (
	"path/filepath"

	"github.com/jojospausch-web/redact-clinical-german/internal/domain"
	"github.com/jojospausch-web/redact-clinical-german/internal/ocr"
	"github.com/jojospausch-web/redact-clinical-german/internal/pdf"
	"github.com/jojospausch-web/redact-clinical-german/internal/repository"
	"github.com/jojospausch-web/redact-clinical-german/internal/service"
	"github.com/jojospausch-web/redact-clinical-german/internal/template"
	"github.com/jojospausch-web/redact-clinical-german/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config           domain.Config
	Logger           domain.Logger
	CityRepository   *repository.CityRepository
	FacilityDatabase *repository.FacilityDatabase
	OCREngine        domain.OCREngine
	PDFEngine        domain.Engine
	AnonymizeService *service.AnonymizeService
	Template         *template.Template
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel(), config.GetLogFormat())

	cityRepo, err := repository.NewCityRepository(
		filepath.Join(config.GetDataDir(), "cities_de.txt"), appLogger)
	if err != nil {
		return nil, err
	}

	facilityDB, err := repository.NewFacilityDatabase(
		filepath.Join(config.GetDataDir(), "medical_facilities_de.json"), appLogger)
	if err != nil {
		return nil, err
	}

	tpl, err := template.Load(config.GetTemplatePath())
	if err != nil {
		return nil, err
	}

	ocrEngine := ocr.NewTesseractEngine(config.GetOCRLanguage(), appLogger)
	pdfEngine := pdf.NewEngine(ocrEngine, appLogger)

	anonymizeService := service.NewAnonymizeService(
		pdfEngine, cityRepo, facilityDB, ocrEngine, appLogger)

	return &Container{
		Config:           config,
		Logger:           appLogger,
		CityRepository:   cityRepo,
		FacilityDatabase: facilityDB,
		OCREngine:        ocrEngine,
		PDFEngine:        pdfEngine,
		AnonymizeService: anonymizeService,
		Template:         tpl,
	}, nil
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetAnonymizeService returns the anonymization service instance
func (c *Container) GetAnonymizeService() *service.AnonymizeService {
	return c.AnonymizeService
}

// GetTemplate returns the currently active template.
func (c *Container) GetTemplate() *template.Template {
	return c.Template
}
