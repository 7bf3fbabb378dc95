package extractor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/iancoleman/orderedmap"
	"github.com/shamaton/msgpack/v2"

	"haruki-swf-extractor/utils"
)

const manifestBaseName = "manifest"

func exportMap(symbols []SymbolEntry) *orderedmap.OrderedMap {
	if len(symbols) == 0 {
		return nil
	}
	om := orderedmap.New()
	om.SetEscapeHTML(false)
	for _, s := range symbols {
		om.Set(s.Name, s.CharacterID)
	}
	return om
}

func encodeManifest(format utils.ManifestFormat, m *Manifest) ([]byte, error) {
	switch format {
	case utils.ManifestFormatMsgpack:
		return msgpack.Marshal(m)
	case utils.ManifestFormatJSON, "":
		return sonic.ConfigDefault.MarshalIndent(m, "", "  ")
	default:
		return nil, fmt.Errorf("invalid manifest format: %s", format)
	}
}

// writeManifest stores m in dir. It returns the written path, or "" when
// the format is none.
func writeManifest(dir string, format utils.ManifestFormat, m *Manifest) (string, error) {
	if format == utils.ManifestFormatNone {
		return "", nil
	}
	data, err := encodeManifest(format, m)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(dir, manifestBaseName+format.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// LoadManifest reads the manifest of an extracted movie in either format.
func LoadManifest(dir string) (*Manifest, error) {
	for _, format := range []utils.ManifestFormat{utils.ManifestFormatJSON, utils.ManifestFormatMsgpack} {
		data, err := os.ReadFile(filepath.Join(dir, manifestBaseName+format.Extension()))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var m Manifest
		if format == utils.ManifestFormatMsgpack {
			err = msgpack.Unmarshal(data, &m)
		} else {
			err = sonic.Unmarshal(data, &m)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s manifest: %w", format, err)
		}
		if m.Exports == nil {
			m.Exports = exportMap(m.Symbols)
		}
		return &m, nil
	}
	return nil, os.ErrNotExist
}
