package extractor

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/iancoleman/orderedmap"

	"haruki-swf-extractor/utils"
)

var (
	ErrNoSource  = errors.New("either path or url is required")
	ErrUnchanged = errors.New("source unchanged since last extraction")
)

type HarukiSWFExtractorPayload struct {
	Path  string `json:"path,omitempty"`
	URL   string `json:"url,omitempty"`
	Name  string `json:"name,omitempty"`
	Force bool   `json:"force,omitempty"`
}

// Source returns the path or URL the payload points at.
func (p HarukiSWFExtractorPayload) Source() string {
	if p.URL != "" {
		return p.URL
	}
	return p.Path
}

// JobName is the output directory name, confined to a single path element.
// Without a usable Name it is derived from the source.
func (p HarukiSWFExtractorPayload) JobName() string {
	name := filepath.Base(filepath.Clean(filepath.FromSlash(p.Name)))
	switch name {
	case ".", "..", string(filepath.Separator):
		return utils.JobName(p.Source())
	}
	return name
}

type AssetKind string

const (
	AssetKindSound  AssetKind = "sound"
	AssetKindStream AssetKind = "stream"
	AssetKindBitmap AssetKind = "bitmap"
	AssetKindBinary AssetKind = "binary"
)

// ExportedAsset is one file written for a movie. File is relative to the
// movie's output directory.
type ExportedAsset struct {
	File        string    `json:"file" msgpack:"file"`
	Kind        AssetKind `json:"kind" msgpack:"kind"`
	CharacterID uint16    `json:"characterId,omitempty" msgpack:"characterId"`
	SpriteID    uint16    `json:"spriteId,omitempty" msgpack:"spriteId"`
	Format      string    `json:"format,omitempty" msgpack:"format"`
	Size        int64     `json:"size" msgpack:"size"`
	Names       []string  `json:"names,omitempty" msgpack:"names"`
}

type SymbolSource string

const (
	SymbolSourceExport SymbolSource = "export"
	SymbolSourceClass  SymbolSource = "class"
)

type SymbolEntry struct {
	CharacterID uint16       `json:"characterId" msgpack:"characterId"`
	Name        string       `json:"name" msgpack:"name"`
	Source      SymbolSource `json:"source" msgpack:"source"`
}

type Manifest struct {
	Name        string          `json:"name" msgpack:"name"`
	Source      string          `json:"source" msgpack:"source"`
	SHA256      string          `json:"sha256" msgpack:"sha256"`
	Version     uint8           `json:"version" msgpack:"version"`
	Compression string          `json:"compression" msgpack:"compression"`
	FrameRate   float32         `json:"frameRate" msgpack:"frameRate"`
	FrameCount  uint16          `json:"frameCount" msgpack:"frameCount"`
	ExtractedAt time.Time       `json:"extractedAt" msgpack:"extractedAt"`
	Assets      []ExportedAsset `json:"assets" msgpack:"assets"`
	Symbols     []SymbolEntry   `json:"symbols,omitempty" msgpack:"symbols"`
	Errors      []string        `json:"errors,omitempty" msgpack:"errors"`

	// Exports maps symbol names to character IDs in declaration order.
	Exports *orderedmap.OrderedMap `json:"exports,omitempty" msgpack:"-"`
}

type JobState string

const (
	JobStateRunning JobState = "running"
	JobStateDone    JobState = "done"
	JobStateSkipped JobState = "skipped"
	JobStateFailed  JobState = "failed"
)

type JobStatus struct {
	Name       string     `json:"name"`
	Source     string     `json:"source"`
	State      JobState   `json:"state"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Assets     int        `json:"assets"`
	Errors     int        `json:"errors"`
	Error      string     `json:"error,omitempty"`
}
