package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConverter_Unconfigured(t *testing.T) {
	t.Parallel()

	var c Converter
	ctx := context.Background()
	if err := c.ConvertPNGToWebP(ctx, "a.png", "a.webp", false); err == nil {
		t.Error("ConvertPNGToWebP() without cwebp should fail")
	}
	if err := c.ConvertWavToMP3(ctx, "a.wav", "a.mp3", false); err == nil {
		t.Error("ConvertWavToMP3() without ffmpeg should fail")
	}
	if err := c.ConvertWavToFLAC(ctx, "a.wav", "a.flac", false); err == nil {
		t.Error("ConvertWavToFLAC() without ffmpeg should fail")
	}
}

func TestConverter_FailureKeepsOriginal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wav := filepath.Join(dir, "1.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Converter{FFmpegPath: filepath.Join(dir, "no-such-ffmpeg")}
	if err := c.ConvertWavToMP3(context.Background(), wav, filepath.Join(dir, "1.mp3"), true); err == nil {
		t.Fatal("ConvertWavToMP3() with a missing binary should fail")
	}
	if _, err := os.Stat(wav); err != nil {
		t.Errorf("original WAV removed after failed conversion: %v", err)
	}
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	if got := lastLine("a\nb\nlast"); got != "last" {
		t.Errorf("lastLine() = %q, want \"last\"", got)
	}
	if got := lastLine("only"); got != "only" {
		t.Errorf("lastLine() = %q, want \"only\"", got)
	}
}
