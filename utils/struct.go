package utils

import (
	"fmt"
	"strings"
)

type HarukiSWFExtractorConfig struct {
	OutputDir              string         `yaml:"output_dir"`
	ExtractedRecordFile    string         `yaml:"extracted_record_file,omitempty"`
	ExportSounds           bool           `yaml:"export_sounds"`
	ExportBitmaps          bool           `yaml:"export_bitmaps"`
	ExportBinaryData       bool           `yaml:"export_binary_data"`
	DecodeMP3ToWav         bool           `yaml:"decode_mp3_to_wav,omitempty"`
	UnpremultiplyAlpha     bool           `yaml:"unpremultiply_alpha,omitempty"`
	ConvertBitmapToWebp    bool           `yaml:"convert_bitmap_to_webp,omitempty"`
	ConvertPNGToWebp       bool           `yaml:"convert_png_to_webp,omitempty"`
	RemovePNG              bool           `yaml:"remove_png,omitempty"`
	ConvertWavToMP3        bool           `yaml:"convert_wav_to_mp3,omitempty"`
	ConvertWavToFLAC       bool           `yaml:"convert_wav_to_flac,omitempty"`
	RemoveWav              bool           `yaml:"remove_wav,omitempty"`
	SkipPatterns           []string       `yaml:"skip_patterns,omitempty"`
	ManifestFormat         ManifestFormat `yaml:"manifest_format,omitempty"`
	LegacyStringEncoding   string         `yaml:"legacy_string_encoding,omitempty"`
	UploadToCloud          bool           `yaml:"upload_to_cloud,omitempty"`
	RemoveLocalAfterUpload bool           `yaml:"remove_local_after_upload,omitempty"`
}

type ManifestFormat string

const (
	ManifestFormatJSON    ManifestFormat = "json"
	ManifestFormatMsgpack ManifestFormat = "msgpack"
	ManifestFormatNone    ManifestFormat = "none"
)

func ParseManifestFormat(s string) (ManifestFormat, error) {
	switch ManifestFormat(strings.ToLower(s)) {
	case "":
		return ManifestFormatJSON, nil
	case ManifestFormatJSON,
		ManifestFormatMsgpack,
		ManifestFormatNone:
		return ManifestFormat(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("invalid manifest format: %s", s)
	}
}

// Extension is the manifest file extension, empty for none.
func (f ManifestFormat) Extension() string {
	switch f {
	case ManifestFormatMsgpack:
		return ".msgpack"
	case ManifestFormatNone:
		return ""
	default:
		return ".json"
	}
}
