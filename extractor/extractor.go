package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dlclark/regexp2"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding"

	"haruki-swf-extractor/config"
	"haruki-swf-extractor/utils"
	"haruki-swf-extractor/utils/exporter"
	harukiLogger "haruki-swf-extractor/utils/logger"
	"haruki-swf-extractor/utils/swf"
)

var logger = harukiLogger.NewLogger("HarukiSWFExtractor", config.Cfg.Backend.LogLevel, nil)

// recordMu serializes access to the record file across concurrent jobs.
var recordMu sync.Mutex

type HarukiSWFExtractor struct {
	ctx          context.Context
	cfg          utils.HarukiSWFExtractorConfig
	converter    exporter.Converter
	storages     []config.RemoteStorageConfig
	decodeSem    int
	uploadSem    int
	skipPatterns []*regexp2.Regexp
	legacy       encoding.Encoding
	client       *resty.Client
}

func NewHarukiSWFExtractor(ctx context.Context, cfg config.Config) (*HarukiSWFExtractor, error) {
	patterns := make([]*regexp2.Regexp, 0, len(cfg.Extractor.SkipPatterns))
	for _, p := range cfg.Extractor.SkipPatterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	client := resty.New()
	client.
		SetRetryCount(0).
		SetTransport(&http.Transport{
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", "HarukiSWFExtractor/"+config.Version)
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	var legacy encoding.Encoding
	if cfg.Extractor.LegacyStringEncoding != "" {
		legacy = swf.LegacyEncoding(cfg.Extractor.LegacyStringEncoding)
	}

	return &HarukiSWFExtractor{
		ctx: ctx,
		cfg: cfg.Extractor,
		converter: exporter.Converter{
			FFmpegPath: cfg.Tools.FFMPEGPath,
			CwebpPath:  cfg.Tools.CwebpPath,
		},
		storages:     cfg.RemoteStorages,
		decodeSem:    max(cfg.ConcurrentDecodes, 1),
		uploadSem:    max(cfg.ConcurrentUploads, 1),
		skipPatterns: patterns,
		legacy:       legacy,
		client:       client,
	}, nil
}

func (e *HarukiSWFExtractor) request(url string) (*resty.Response, error) {
	var lastErr error
	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			select {
			case <-e.ctx.Done():
				return nil, e.ctx.Err()
			case <-time.After(time.Second):
			}
		}
		resp, err := e.client.R().
			SetContext(e.ctx).
			Get(url)
		if err != nil {
			lastErr = err
			if e.ctx.Err() != nil {
				return nil, e.ctx.Err()
			}
			continue
		}
		if resp.StatusCode() < 500 {
			return resp, nil
		}
		lastErr = fmt.Errorf("server error: %s", resp.Status())
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("request failed after retries")
}

func (e *HarukiSWFExtractor) readSource(payload HarukiSWFExtractorPayload) ([]byte, error) {
	if payload.URL != "" {
		resp, err := e.request(payload.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", payload.URL, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: %s", payload.URL, resp.Status())
		}
		return resp.Body(), nil
	}
	if payload.Path == "" {
		return nil, ErrNoSource
	}
	return os.ReadFile(payload.Path)
}

func (e *HarukiSWFExtractor) loadRecords() (map[string]string, error) {
	records := make(map[string]string)
	if e.cfg.ExtractedRecordFile == "" {
		return records, nil
	}
	data, err := os.ReadFile(e.cfg.ExtractedRecordFile)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, err
	}
	if err = sonic.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = make(map[string]string)
	}
	return records, nil
}

func (e *HarukiSWFExtractor) saveRecords(records map[string]string) error {
	if e.cfg.ExtractedRecordFile == "" {
		return nil
	}
	data, err := sonic.Marshal(records)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(e.cfg.ExtractedRecordFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(e.cfg.ExtractedRecordFile, data, 0o644)
}

func (e *HarukiSWFExtractor) alreadyExtracted(source, hash string) (bool, error) {
	recordMu.Lock()
	defer recordMu.Unlock()
	records, err := e.loadRecords()
	if err != nil {
		return false, err
	}
	return records[source] == hash, nil
}

func (e *HarukiSWFExtractor) markExtracted(source, hash string) error {
	recordMu.Lock()
	defer recordMu.Unlock()
	records, err := e.loadRecords()
	if err != nil {
		return err
	}
	records[source] = hash
	return e.saveRecords(records)
}

func (e *HarukiSWFExtractor) skipped(name string) bool {
	for _, re := range e.skipPatterns {
		if ok, err := re.MatchString(name); err == nil && ok {
			return true
		}
	}
	return false
}

// Run extracts one movie into OutputDir/<name> and returns its manifest.
// A source whose hash matches the record file returns ErrUnchanged unless
// payload.Force is set.
func (e *HarukiSWFExtractor) Run(payload HarukiSWFExtractorPayload) (*Manifest, error) {
	source := payload.Source()
	name := payload.JobName()

	data, err := e.readSource(payload)
	if err != nil {
		return nil, err
	}
	hash := utils.SHA256Hex(data)
	if !payload.Force {
		done, err := e.alreadyExtracted(source, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to load extracted records: %w", err)
		}
		if done {
			logger.Infof("Skipping %s, unchanged since last extraction", source)
			return nil, ErrUnchanged
		}
	}

	movie, err := swf.Read(bytes.NewReader(data), swf.WithLegacyEncoding(e.legacy))
	if movie == nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	manifest := &Manifest{
		Name:        name,
		Source:      source,
		SHA256:      hash,
		Version:     movie.Header.Version,
		Compression: movie.Header.Compression.String(),
		FrameRate:   movie.FrameRate,
		FrameCount:  movie.FrameCount,
		ExtractedAt: time.Now().UTC(),
	}
	if err != nil {
		logger.Warnf("%s is truncated, exporting what was read: %v", source, err)
		manifest.Errors = append(manifest.Errors, err.Error())
	}

	outDir := filepath.Join(e.cfg.OutputDir, name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	logger.Infof("Extracting %s (SWF %d, %s, %d tags) to %s", source, movie.Header.Version, movie.Header.Compression, len(movie.Tags), outDir)

	d := newDispatcher(e, outDir)
	d.walk(movie.Tags)
	d.decodeBitmaps()
	d.finish(manifest)

	renames, err := e.postProcessExportedFiles(outDir)
	if err != nil {
		manifest.Errors = append(manifest.Errors, err.Error())
		logger.Warnf("Post-processing %s: %v", outDir, err)
	}
	applyRenames(outDir, manifest, renames)

	if _, err := writeManifest(outDir, e.cfg.ManifestFormat, manifest); err != nil {
		return manifest, err
	}
	if err := e.upload(outDir); err != nil {
		return manifest, err
	}
	if err := e.markExtracted(source, hash); err != nil {
		return manifest, fmt.Errorf("failed to save extracted records: %w", err)
	}
	logger.Infof("Extracted %d assets from %s (%d errors)", len(manifest.Assets), source, len(manifest.Errors))
	return manifest, nil
}

func (e *HarukiSWFExtractor) Close() {
	e.client = nil
}
