package exporter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Converter runs the external encoders used in post-processing. An empty
// tool path disables that conversion.
type Converter struct {
	FFmpegPath string
	CwebpPath  string
}

func runTool(ctx context.Context, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func removeIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}

func (c Converter) ConvertPNGToWebP(ctx context.Context, pngFile, webpFile string, deleteOriginal bool) error {
	if c.CwebpPath == "" {
		return fmt.Errorf("cwebp path is not configured")
	}
	if err := runTool(ctx, c.CwebpPath, "-q", "80", pngFile, "-o", webpFile); err != nil {
		return fmt.Errorf("failed to convert PNG to WebP: %w", err)
	}
	if deleteOriginal {
		if err := removeIfExists(pngFile); err != nil {
			return fmt.Errorf("failed to delete original PNG file: %w", err)
		}
	}
	return nil
}

func (c Converter) convertWav(ctx context.Context, wavFile, outFile string, deleteOriginal bool, codecArgs ...string) error {
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path is not configured")
	}
	args := append([]string{"-i", wavFile}, codecArgs...)
	args = append(args, "-y", outFile)
	if err := runTool(ctx, c.FFmpegPath, args...); err != nil {
		return err
	}
	if deleteOriginal {
		if err := removeIfExists(wavFile); err != nil {
			return fmt.Errorf("failed to delete original WAV file: %w", err)
		}
	}
	return nil
}

func (c Converter) ConvertWavToFLAC(ctx context.Context, wavFile, flacFile string, deleteOriginal bool) error {
	if err := c.convertWav(ctx, wavFile, flacFile, deleteOriginal, "-compression_level", "12"); err != nil {
		return fmt.Errorf("failed to convert WAV to FLAC: %w", err)
	}
	return nil
}

func (c Converter) ConvertWavToMP3(ctx context.Context, wavFile, mp3File string, deleteOriginal bool) error {
	if err := c.convertWav(ctx, wavFile, mp3File, deleteOriginal, "-b:a", "320k"); err != nil {
		return fmt.Errorf("failed to convert WAV to MP3: %w", err)
	}
	return nil
}
