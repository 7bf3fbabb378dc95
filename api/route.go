package api

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"

	"haruki-swf-extractor/config"
	"haruki-swf-extractor/extractor"
	harukiLogger "haruki-swf-extractor/utils/logger"
)

var logger = harukiLogger.NewLogger("HarukiSWFExtractorAPI", "INFO", nil)

// runExtractor runs one registered job in a goroutine
func runExtractor(payload extractor.HarukiSWFExtractorPayload) {
	go func() {
		name := payload.JobName()
		ex, err := extractor.NewHarukiSWFExtractor(context.Background(), config.Cfg)
		if err != nil {
			logger.Errorf("Failed to create extractor for %s: %v", name, err)
			extractor.Jobs.Finish(name, nil, err)
			return
		}
		defer ex.Close()

		m, err := ex.Run(payload)
		extractor.Jobs.Finish(name, m, err)
		if err != nil && !errors.Is(err, extractor.ErrUnchanged) {
			logger.Errorf("Extraction %s failed: %v", name, err)
		}
	}()
}

// RegisterRoutes registers all API routes
func RegisterRoutes(app *fiber.App) {
	app.Post("/extract", checkAuthorization, extractHandler)
	app.Get("/status", checkAuthorization, statusHandler)
	app.Get("/status/:name", checkAuthorization, jobStatusHandler)
	app.Get("/manifest/:name", checkAuthorization, manifestHandler)
}

func checkAuthorization(c fiber.Ctx) error {
	if !config.Cfg.Backend.EnableAuthorization {
		return c.Next()
	}
	if prefix := config.Cfg.Backend.AcceptUserAgentPrefix; prefix != "" {
		if !strings.HasPrefix(c.Get("User-Agent"), prefix) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid User-Agent",
			})
		}
	}
	if token := config.Cfg.Backend.AcceptAuthorizationToken; token != "" {
		if c.Get("Authorization") != "Bearer "+token {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid authorization token",
			})
		}
	}
	return c.Next()
}

// extractHandler registers an extraction job and starts it
func extractHandler(c fiber.Ctx) error {
	var payload extractor.HarukiSWFExtractorPayload
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}
	if payload.Source() == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": extractor.ErrNoSource.Error(),
		})
	}

	name := payload.JobName()
	payload.Name = name
	if err := extractor.Jobs.Start(name, payload.Source()); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": err.Error(),
			"name":    name,
		})
	}
	runExtractor(payload)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Extraction started",
		"name":    name,
	})
}

func statusHandler(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": config.Version,
		"jobs":    extractor.Jobs.List(),
	})
}

func jobStatusHandler(c fiber.Ctx) error {
	job, ok := extractor.Jobs.Get(c.Params("name"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Job not found",
		})
	}
	return c.JSON(job)
}

// manifestHandler serves a stored manifest as JSON, whatever format it was
// written in.
func manifestHandler(c fiber.Ctx) error {
	name := extractor.HarukiSWFExtractorPayload{Name: c.Params("name")}.JobName()
	m, err := extractor.LoadManifest(filepath.Join(config.Cfg.Extractor.OutputDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Manifest not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load manifest",
			"error":   err.Error(),
		})
	}
	return c.JSON(m)
}
