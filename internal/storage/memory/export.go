package memory

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
)

// ExportVersion is written into every export file.
const ExportVersion = 1

// Export is the root JSON structure of an exported game.
type Export struct {
	Version int `json:"version"`
	storage.Journal
}

// exportJSON writes the journal to <outputDir>/<game-id>.json, gzipped when configured.
func (b *Backend) exportJSON(j storage.Journal) error {
	filename := j.Game.ID + ".json"
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	export := Export{Version: ExportVersion, Journal: j}
	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// LoadExport reads an exported game, gzipped or plain, and returns its
// journal ordered by sequence number.
func LoadExport(path string) (storage.Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return storage.Journal{}, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var src io.Reader = r
	if magic, err := r.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return storage.Journal{}, fmt.Errorf("open gzip export: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var export Export
	if err := json.NewDecoder(src).Decode(&export); err != nil {
		return storage.Journal{}, fmt.Errorf("decode export %s: %w", path, err)
	}
	if export.Version != ExportVersion {
		return storage.Journal{}, fmt.Errorf("export %s: unsupported version %d", path, export.Version)
	}

	export.Journal.SortBySeq()
	return export.Journal, nil
}
