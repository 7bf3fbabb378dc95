package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"haruki-swf-extractor/config"
)

func TestApplyRenames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "1.mp3"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := &Manifest{Assets: []ExportedAsset{{File: "1.wav", Size: 52}, {File: "2.png", Size: 9}}}
	renames := map[string][]string{}
	addRename(renames, root, filepath.Join(root, "1.wav"), filepath.Join(root, "1.mp3"))
	applyRenames(root, m, renames)

	if m.Assets[0].File != "1.mp3" || m.Assets[0].Size != 3 {
		t.Errorf("Assets[0] = %+v, want 1.mp3 size 3", m.Assets[0])
	}
	if m.Assets[1].File != "2.png" || m.Assets[1].Size != 9 {
		t.Errorf("Assets[1] = %+v, want unchanged", m.Assets[1])
	}
}

func TestApplyRenames_MultipleOutputs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for name, body := range map[string]string{"1.mp3": "abc", "1.flac": "abcdef"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := &Manifest{Assets: []ExportedAsset{
		{File: "1.wav", Kind: AssetKindSound, CharacterID: 1, Size: 52},
		{File: "2.png", Size: 9},
	}}
	renames := map[string][]string{}
	addRename(renames, root, filepath.Join(root, "1.wav"), filepath.Join(root, "1.mp3"), filepath.Join(root, "1.flac"))
	applyRenames(root, m, renames)

	want := []struct {
		file string
		size int64
	}{{"1.mp3", 3}, {"1.flac", 6}, {"2.png", 9}}
	if len(m.Assets) != len(want) {
		t.Fatalf("Assets = %+v, want %d entries", m.Assets, len(want))
	}
	for i, w := range want {
		if m.Assets[i].File != w.file || m.Assets[i].Size != w.size {
			t.Errorf("Assets[%d] = %+v, want %s size %d", i, m.Assets[i], w.file, w.size)
		}
	}
	if m.Assets[1].Kind != AssetKindSound || m.Assets[1].CharacterID != 1 {
		t.Errorf("Assets[1] = %+v, want sound 1", m.Assets[1])
	}
}

func TestPostProcess_MissingToolIsReported(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Extractor.ConvertWavToMP3 = true
	cfg.Extractor.RemoveWav = true
	ex := newTestExtractor(t, cfg)

	m, err := ex.Run(HarukiSWFExtractorPayload{Path: writeMovie(t, movie(defineSound(1, 4, rampBlock)))})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(m.Errors) != 1 {
		t.Fatalf("Errors = %v, want the ffmpeg failure", m.Errors)
	}
	// The WAV stays when conversion fails.
	if m.Assets[0].File != "1.wav" {
		t.Errorf("Assets[0].File = %q, want 1.wav", m.Assets[0].File)
	}
	if _, err := os.Stat(filepath.Join(cfg.Extractor.OutputDir, "sample", "1.wav")); err != nil {
		t.Errorf("1.wav missing: %v", err)
	}
}

func TestPostProcess_MP3AndFLACBothListed(t *testing.T) {
	t.Parallel()

	// Stand-in ffmpeg that writes its last argument.
	tool := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor a; do out=$a; done\nprintf encoded > \"$out\"\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.Tools.FFMPEGPath = tool
	cfg.Extractor.ConvertWavToMP3 = true
	cfg.Extractor.ConvertWavToFLAC = true
	cfg.Extractor.RemoveWav = true
	ex := newTestExtractor(t, cfg)

	m, err := ex.Run(HarukiSWFExtractorPayload{Path: writeMovie(t, movie(defineSound(1, 4, rampBlock)))})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(m.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", m.Errors)
	}
	files := make(map[string]ExportedAsset, len(m.Assets))
	for _, a := range m.Assets {
		files[a.File] = a
	}
	for _, name := range []string{"1.mp3", "1.flac"} {
		a, ok := files[name]
		if !ok {
			t.Errorf("manifest is missing %s: %v", name, assetFiles(m))
			continue
		}
		if a.Size != int64(len("encoded")) {
			t.Errorf("%s size = %d, want %d", name, a.Size, len("encoded"))
		}
		if _, err := os.Stat(filepath.Join(cfg.Extractor.OutputDir, "sample", name)); err != nil {
			t.Errorf("%s missing on disk: %v", name, err)
		}
	}
	if _, ok := files["1.wav"]; ok {
		t.Error("manifest still lists the removed 1.wav")
	}
}

func TestUpload_ProgramStorage(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	dest := t.TempDir()
	cfg.Extractor.UploadToCloud = true
	cfg.RemoteStorages = []config.RemoteStorageConfig{{
		Type:    "program",
		Base:    dest,
		Program: "cp",
		Args:    []string{"src", "dst"},
	}}
	ex := newTestExtractor(t, cfg)

	if _, err := ex.Run(HarukiSWFExtractorPayload{Path: writeMovie(t, movie(binaryData(3, []byte("payload"))))}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, name := range []string{"3.bin", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("%s not uploaded: %v", name, err)
		}
	}
}
