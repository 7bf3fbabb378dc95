package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"haruki-swf-extractor/utils/exporter"
	"haruki-swf-extractor/utils/swf"
)

type bitmapJob struct {
	name     string
	id       uint16
	spriteID uint16
	format   string
	decode   func(jpegTables []byte) (*exporter.Bitmap, error)
}

// stream is the sound stream of one timeline.
type stream struct {
	head  *swf.SoundStreamHead
	sound *exporter.Sound
}

// dispatcher routes the tags of one movie to the exporters. Sounds and
// binary data are written during the walk; bitmaps are queued and decoded
// afterwards so DefineBits can use JPEGTables wherever it appears.
type dispatcher struct {
	ex         *HarukiSWFExtractor
	outDir     string
	jpegTables []byte
	jobs       []bitmapJob

	mu      sync.Mutex
	assets  []ExportedAsset
	symbols []SymbolEntry
	errs    []string
}

func newDispatcher(ex *HarukiSWFExtractor, outDir string) *dispatcher {
	return &dispatcher{ex: ex, outDir: outDir}
}

func (d *dispatcher) fail(err error) {
	logger.Warnf("%v", err)
	d.mu.Lock()
	d.errs = append(d.errs, err.Error())
	d.mu.Unlock()
}

func (d *dispatcher) record(path string, asset ExportedAsset) {
	rel, err := filepath.Rel(d.outDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	asset.File = filepath.ToSlash(rel)
	if info, err := os.Stat(path); err == nil {
		asset.Size = info.Size()
	}
	d.mu.Lock()
	d.assets = append(d.assets, asset)
	d.mu.Unlock()
}

func (d *dispatcher) walk(tags []swf.Tag) {
	d.walkTimeline(0, tags)
}

// walkTimeline handles the root timeline (spriteID 0) or one sprite. Output
// names inside a sprite carry a "<spriteID>-" prefix.
func (d *dispatcher) walkTimeline(spriteID uint16, tags []swf.Tag) {
	prefix := ""
	if spriteID != 0 {
		prefix = strconv.Itoa(int(spriteID)) + "-"
	}
	cfg := d.ex.cfg
	var st stream

	for _, tag := range tags {
		switch t := tag.(type) {
		case *swf.DefineSound:
			if cfg.ExportSounds {
				d.exportSound(prefix, spriteID, t)
			}
		case *swf.SoundStreamHead:
			if !cfg.ExportSounds {
				continue
			}
			switch {
			case st.sound == nil || st.sound.Empty():
				st.head = t
				st.sound = exporter.NewSound(t.StreamFormat)
			case t.StreamFormat != st.head.StreamFormat:
				logger.Warnf("%sstream: ignoring SoundStreamHead with different format %s", prefix, t.StreamFormat)
			}
		case *swf.SoundStreamBlock:
			if !cfg.ExportSounds {
				continue
			}
			if st.head == nil {
				logger.Debugf("%sstream: block without SoundStreamHead", prefix)
				continue
			}
			d.appendStreamBlock(prefix, &st, t)
		case *swf.JPEGTables:
			if len(d.jpegTables) == 0 {
				d.jpegTables = t.Data
			}
		case *swf.DefineBits:
			if cfg.ExportBitmaps {
				d.queueDefineBits(prefix, spriteID, t)
			}
		case *swf.DefineBitsJPEG:
			if cfg.ExportBitmaps {
				d.queueDefineBitsJPEG(prefix, spriteID, t)
			}
		case *swf.DefineBitsLossless:
			if cfg.ExportBitmaps {
				d.queueLossless(prefix, spriteID, t)
			}
		case *swf.DefineBinaryData:
			if cfg.ExportBinaryData {
				d.exportBinary(prefix, spriteID, t)
			}
		case *swf.DefineSprite:
			d.walkTimeline(t.ID, t.Tags)
		case *swf.ExportAssets:
			d.addSymbols(t.Symbols, SymbolSourceExport)
		case *swf.SymbolClass:
			d.addSymbols(t.Symbols, SymbolSourceClass)
		case *swf.Malformed:
			d.fail(fmt.Errorf("%s%v", prefix, t))
		}
	}

	if st.sound != nil && !st.sound.Empty() {
		d.saveSound(prefix+"stream", st.sound, ExportedAsset{
			Kind:     AssetKindStream,
			SpriteID: spriteID,
			Format:   st.sound.Format.String(),
		})
	}
}

func (d *dispatcher) addSymbols(symbols []swf.Symbol, source SymbolSource) {
	for _, s := range symbols {
		d.symbols = append(d.symbols, SymbolEntry{CharacterID: s.ID, Name: s.Name, Source: source})
	}
}

func (d *dispatcher) appendStreamBlock(prefix string, st *stream, t *swf.SoundStreamBlock) {
	data := t.Data
	if st.head.StreamFormat.Compression == swf.AudioMP3 {
		data = exporter.StripMP3StreamHeader(data)
	}
	if err := st.sound.AppendBlock(data, 0); err != nil {
		d.fail(fmt.Errorf("%sstream block %d: %w", prefix, st.sound.Blocks(), err))
	}
}

func (d *dispatcher) exportSound(prefix string, spriteID uint16, t *swf.DefineSound) {
	sound := exporter.NewSound(t.Format)
	data := t.Data
	limit := 0
	switch t.Format.Compression {
	case swf.AudioMP3:
		data = exporter.StripMP3SoundHeader(data)
	case swf.AudioADPCM:
		limit = int(t.SampleCount)
	}
	if err := sound.AppendBlock(data, limit); err != nil {
		d.fail(fmt.Errorf("sound %d: %w", t.ID, err))
		return
	}
	d.saveSound(prefix+strconv.Itoa(int(t.ID)), sound, ExportedAsset{
		Kind:        AssetKindSound,
		CharacterID: t.ID,
		SpriteID:    spriteID,
		Format:      t.Format.String(),
	})
}

func (d *dispatcher) saveSound(name string, sound *exporter.Sound, asset ExportedAsset) {
	if d.ex.skipped(name) {
		logger.Debugf("Skipping sound %s", name)
		return
	}
	path, err := sound.Save(filepath.Join(d.outDir, name), d.ex.cfg.DecodeMP3ToWav)
	if err != nil {
		d.fail(fmt.Errorf("sound %s: %w", name, err))
		return
	}
	d.record(path, asset)
}

func (d *dispatcher) exportBinary(prefix string, spriteID uint16, t *swf.DefineBinaryData) {
	name := prefix + strconv.Itoa(int(t.ID))
	if d.ex.skipped(name) {
		return
	}
	path := filepath.Join(d.outDir, name+".bin")
	if err := os.WriteFile(path, t.Data, 0o644); err != nil {
		d.fail(fmt.Errorf("binary data %d: %w", t.ID, err))
		return
	}
	d.record(path, ExportedAsset{Kind: AssetKindBinary, CharacterID: t.ID, SpriteID: spriteID})
}

func (d *dispatcher) queueDefineBits(prefix string, spriteID uint16, t *swf.DefineBits) {
	d.jobs = append(d.jobs, bitmapJob{
		name:     prefix + strconv.Itoa(int(t.ID)),
		id:       t.ID,
		spriteID: spriteID,
		format:   "jpeg",
		decode: func(tables []byte) (*exporter.Bitmap, error) {
			return exporter.DecodeEmbedded(t.ID, exporter.JoinJPEGTables(tables, t.Data), nil)
		},
	})
}

func (d *dispatcher) queueDefineBitsJPEG(prefix string, spriteID uint16, t *swf.DefineBitsJPEG) {
	d.jobs = append(d.jobs, bitmapJob{
		name:     prefix + strconv.Itoa(int(t.ID)),
		id:       t.ID,
		spriteID: spriteID,
		format:   fmt.Sprintf("jpeg%d", t.Version),
		decode: func([]byte) (*exporter.Bitmap, error) {
			return exporter.DecodeEmbedded(t.ID, t.Data, t.AlphaData)
		},
	})
}

func (d *dispatcher) queueLossless(prefix string, spriteID uint16, t *swf.DefineBitsLossless) {
	unpremultiply := d.ex.cfg.UnpremultiplyAlpha
	d.jobs = append(d.jobs, bitmapJob{
		name:     prefix + strconv.Itoa(int(t.ID)),
		id:       t.ID,
		spriteID: spriteID,
		format:   fmt.Sprintf("lossless%d-%d %dx%d", t.Version, t.Format, t.Width, t.Height),
		decode: func([]byte) (*exporter.Bitmap, error) {
			return exporter.DecodeLossless(t, unpremultiply)
		},
	})
}

// decodeBitmaps runs the queued bitmap jobs with at most decodeSem in flight.
func (d *dispatcher) decodeBitmaps() {
	var jobs []bitmapJob
	for _, job := range d.jobs {
		if d.ex.skipped(job.name) {
			logger.Debugf("Skipping bitmap %s", job.name)
			continue
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return
	}

	sem := make(chan struct{}, d.ex.decodeSem)
	var wg sync.WaitGroup
	errChan := make(chan error, len(jobs))
	webp := d.ex.cfg.ConvertBitmapToWebp

	for _, job := range jobs {
		wg.Add(1)
		go func(j bitmapJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			bm, err := j.decode(d.jpegTables)
			if err != nil {
				errChan <- fmt.Errorf("bitmap %s: %w", j.name, err)
				return
			}
			path, err := bm.Save(filepath.Join(d.outDir, j.name), webp)
			if err != nil {
				errChan <- fmt.Errorf("bitmap %s: %w", j.name, err)
				return
			}
			d.record(path, ExportedAsset{
				Kind:        AssetKindBitmap,
				CharacterID: j.id,
				SpriteID:    j.spriteID,
				Format:      j.format,
			})
		}(job)
	}

	wg.Wait()
	close(errChan)

	errorCount := 0
	for err := range errChan {
		errorCount++
		d.fail(err)
	}
	if errorCount > 0 {
		logger.Warnf("Failed to decode %d of %d bitmaps", errorCount, len(jobs))
	}
}

// finish copies the collected assets, symbols and errors into m. Assets are
// sorted by file name and tagged with the symbol names of their character.
func (d *dispatcher) finish(m *Manifest) {
	names := make(map[uint16][]string)
	for _, s := range d.symbols {
		names[s.CharacterID] = append(names[s.CharacterID], s.Name)
	}
	assets := make([]ExportedAsset, len(d.assets))
	copy(assets, d.assets)
	for i := range assets {
		if assets[i].Kind != AssetKindStream && assets[i].CharacterID != 0 {
			assets[i].Names = names[assets[i].CharacterID]
		}
	}
	slices.SortFunc(assets, func(a, b ExportedAsset) int {
		return strings.Compare(a.File, b.File)
	})
	m.Assets = assets
	m.Symbols = d.symbols
	m.Exports = exportMap(d.symbols)
	m.Errors = append(m.Errors, d.errs...)
}
