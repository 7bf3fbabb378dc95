package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"haruki-swf-extractor/api"
	"haruki-swf-extractor/config"
	"haruki-swf-extractor/extractor"
	harukiLogger "haruki-swf-extractor/utils/logger"
)

// extractFiles runs each movie in order and reports how many failed.
func extractFiles(ctx context.Context, mainLogger *harukiLogger.Logger, paths []string, force bool) int {
	ex, err := extractor.NewHarukiSWFExtractor(ctx, config.Cfg)
	if err != nil {
		mainLogger.Errorf("failed to create extractor: %v", err)
		return len(paths)
	}
	defer ex.Close()

	failed := 0
	for _, p := range paths {
		m, err := extractor.RunJob(ex, extractor.Jobs, extractor.HarukiSWFExtractorPayload{Path: p, Force: force})
		switch {
		case errors.Is(err, extractor.ErrUnchanged):
			mainLogger.Infof("%s: unchanged, skipped", p)
		case err != nil:
			failed++
			mainLogger.Errorf("%s: %v", p, err)
		default:
			mainLogger.Infof("%s: %d assets, %d errors", p, len(m.Assets), len(m.Errors))
		}
	}
	return failed
}

func main() {
	force := flag.Bool("force", false, "extract even when the record file says the movie is unchanged")
	flag.Parse()

	var logFile *os.File
	var loggerWriter io.Writer = os.Stdout
	if config.Cfg.Backend.MainLogFile != "" {
		var err error
		logFile, err = os.OpenFile(config.Cfg.Backend.MainLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			mainLogger := harukiLogger.NewLogger("Main", config.Cfg.Backend.LogLevel, os.Stdout)
			mainLogger.Errorf("failed to open main log file: %v", err)
			os.Exit(1)
		}
		loggerWriter = io.MultiWriter(os.Stdout, logFile)
		defer func(logFile *os.File) {
			_ = logFile.Close()
		}(logFile)
	}
	mainLogger := harukiLogger.NewLogger("Main", config.Cfg.Backend.LogLevel, loggerWriter)
	mainLogger.Infof("========================= Haruki SWF Extractor %s =========================", config.Version)
	mainLogger.Infof("Powered By Haruki Dev Team")

	if flag.NArg() > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		failed := extractFiles(ctx, mainLogger, flag.Args(), *force)
		stop()
		if failed > 0 {
			mainLogger.Errorf("%d of %d movies failed", failed, flag.NArg())
			os.Exit(1)
		}
		return
	}

	app := fiber.New(fiber.Config{
		BodyLimit:   1 * 1024 * 1024,
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	if config.Cfg.Backend.AccessLog != "" {
		logCfg := logger.Config{Format: config.Cfg.Backend.AccessLog}
		if config.Cfg.Backend.AccessLogPath != "" {
			accessLogFile, err := os.OpenFile(config.Cfg.Backend.AccessLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				mainLogger.Errorf("failed to open access log file: %v", err)
				os.Exit(1)
			}
			defer func(accessLogFile *os.File) {
				_ = accessLogFile.Close()
			}(accessLogFile)
			logCfg.Stream = accessLogFile
		}
		app.Use(logger.New(logCfg))
	}

	api.RegisterRoutes(app)

	addr := fmt.Sprintf("%s:%d", config.Cfg.Backend.Host, config.Cfg.Backend.Port)
	listenCfg := fiber.ListenConfig{DisableStartupMessage: true}
	scheme := "HTTP"
	if config.Cfg.Backend.SSL {
		listenCfg.CertFile = config.Cfg.Backend.SSLCert
		listenCfg.CertKeyFile = config.Cfg.Backend.SSLKey
		scheme = "HTTPS"
	}
	mainLogger.Infof("Listening on %s (%s)", addr, scheme)
	if err := app.Listen(addr, listenCfg); err != nil {
		mainLogger.Errorf("failed to start %s server: %v", scheme, err)
		os.Exit(1)
	}
}
