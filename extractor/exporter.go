package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"haruki-swf-extractor/utils"
	"haruki-swf-extractor/utils/cloud"
)

// postProcessExportedFiles runs the external converters over exportPath and
// returns old to new file names, relative to exportPath. A removed original
// maps to every file that replaced it; a kept original is absent from the map.
func (e *HarukiSWFExtractor) postProcessExportedFiles(exportPath string) (map[string][]string, error) {
	renames := make(map[string][]string)
	if _, err := os.Stat(exportPath); os.IsNotExist(err) {
		return renames, nil
	}
	if err := e.handleWavConversion(exportPath, renames); err != nil {
		return renames, fmt.Errorf("failed to handle WAV files in %s: %w", exportPath, err)
	}
	if err := e.handlePNGConversion(exportPath, renames); err != nil {
		return renames, fmt.Errorf("failed to handle PNG conversion in %s: %w", exportPath, err)
	}
	return renames, nil
}

func (e *HarukiSWFExtractor) handleWavConversion(exportPath string, renames map[string][]string) error {
	if !e.cfg.ConvertWavToMP3 && !e.cfg.ConvertWavToFLAC {
		return nil
	}
	wavFiles, err := utils.FindFilesByExtension(exportPath, ".wav")
	if err != nil {
		return err
	}

	for _, wavFile := range wavFiles {
		base := strings.TrimSuffix(wavFile, filepath.Ext(wavFile))
		var converted []string
		if e.cfg.ConvertWavToMP3 {
			mp3File := base + ".mp3"
			logger.Infof("Converting WAV to MP3: %s", wavFile)
			if err := e.converter.ConvertWavToMP3(e.ctx, wavFile, mp3File, false); err != nil {
				return fmt.Errorf("failed to convert %s: %w", wavFile, err)
			}
			converted = append(converted, mp3File)
		}
		if e.cfg.ConvertWavToFLAC {
			flacFile := base + ".flac"
			logger.Infof("Converting WAV to FLAC: %s", wavFile)
			if err := e.converter.ConvertWavToFLAC(e.ctx, wavFile, flacFile, false); err != nil {
				return fmt.Errorf("failed to convert %s: %w", wavFile, err)
			}
			converted = append(converted, flacFile)
		}
		if e.cfg.RemoveWav {
			if err := os.Remove(wavFile); err != nil {
				return fmt.Errorf("failed to remove original WAV %s: %w", wavFile, err)
			}
			addRename(renames, exportPath, wavFile, converted...)
		}
	}
	return nil
}

func (e *HarukiSWFExtractor) handlePNGConversion(exportPath string, renames map[string][]string) error {
	if !e.cfg.ConvertPNGToWebp {
		return nil
	}

	pngFiles, err := utils.FindFilesByExtension(exportPath, ".png")
	if err != nil {
		return err
	}

	for _, pngFile := range pngFiles {
		webpFile := strings.TrimSuffix(pngFile, filepath.Ext(pngFile)) + ".webp"
		logger.Infof("Converting PNG to WebP: %s -> %s", pngFile, webpFile)
		if err := e.converter.ConvertPNGToWebP(e.ctx, pngFile, webpFile, e.cfg.RemovePNG); err != nil {
			return fmt.Errorf("failed to convert %s to WebP: %w", pngFile, err)
		}
		if e.cfg.RemovePNG {
			addRename(renames, exportPath, pngFile, webpFile)
		}
	}
	return nil
}

func addRename(renames map[string][]string, root, from string, to ...string) {
	relFrom, err := filepath.Rel(root, from)
	if err != nil {
		return
	}
	targets := make([]string, 0, len(to))
	for _, t := range to {
		relTo, err := filepath.Rel(root, t)
		if err != nil {
			return
		}
		targets = append(targets, filepath.ToSlash(relTo))
	}
	if len(targets) > 0 {
		renames[filepath.ToSlash(relFrom)] = targets
	}
}

// applyRenames replaces each renamed asset with one entry per output file.
func applyRenames(root string, m *Manifest, renames map[string][]string) {
	if len(renames) == 0 {
		return
	}
	assets := make([]ExportedAsset, 0, len(m.Assets))
	for _, asset := range m.Assets {
		targets, ok := renames[asset.File]
		if !ok {
			assets = append(assets, asset)
			continue
		}
		for _, to := range targets {
			renamed := asset
			renamed.File = to
			renamed.Size = 0
			if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(to))); err == nil {
				renamed.Size = info.Size()
			}
			assets = append(assets, renamed)
		}
	}
	m.Assets = assets
}

func (e *HarukiSWFExtractor) upload(exportPath string) error {
	if !e.cfg.UploadToCloud {
		return nil
	}
	exportedFiles, err := utils.ScanAllFiles(exportPath)
	if err != nil {
		return fmt.Errorf("failed to scan files in %s for upload: %w", exportPath, err)
	}
	if len(exportedFiles) == 0 {
		logger.Infof("No files found to upload in %s", exportPath)
		return nil
	}
	logger.Infof("Found %d files to upload from %s", len(exportedFiles), exportPath)
	if err := cloud.UploadToAllStorages(e.ctx, e.storages, exportedFiles, exportPath, e.uploadSem, e.cfg.RemoveLocalAfterUpload); err != nil {
		return fmt.Errorf("failed to upload files from %s: %w", exportPath, err)
	}
	return nil
}
