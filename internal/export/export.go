// Package export writes a populated dataset to files, one per entity, so a run can be
// shared without access to the stores.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Rana718/mfgseed/internal/database"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/schema"
	"golang.org/x/sync/errgroup"
)

type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case JSON, CSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q (json, csv)", s)
}

type File struct {
	Store  string `json:"store"`
	Entity string `json:"entity"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
}

type Manifest struct {
	Timestamp string `json:"timestamp"`
	Format    Format `json:"format"`
	Files     []File `json:"files"`
}

type Exporter struct {
	catalog *schema.Catalog
	dir     string
	format  Format
	log     *logger.Logger
}

func New(c *schema.Catalog, dir string, format Format, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Discard()
	}
	return &Exporter{catalog: c, dir: dir, format: format, log: log}
}

// Columns lists what is exported for an entity: every column except the
// document store's internal object id.
func Columns(e *schema.Entity) []string {
	var cols []string
	for _, c := range e.Columns {
		if c.Type == schema.ObjectID {
			continue
		}
		cols = append(cols, c.Name)
	}
	return cols
}

// All exports each given store from its own goroutine. Stores are not shared between
// goroutines. A manifest.json listing every file is written last.
func (x *Exporter) All(ctx context.Context, stores map[schema.Store]database.Store) (Manifest, error) {
	m := Manifest{Timestamp: time.Now().UTC().Format(time.RFC3339), Format: x.format}
	if err := os.MkdirAll(x.dir, 0755); err != nil {
		return m, fmt.Errorf("failed to create export directory: %w", err)
	}

	var mu sync.Mutex
	byStore := make(map[schema.Store][]File)
	g, ctx := errgroup.WithContext(ctx)
	for s, st := range stores {
		s, st := s, st
		g.Go(func() error {
			files, err := x.Store(ctx, st, s)
			mu.Lock()
			byStore[s] = files
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()

	for _, s := range schema.StoreOrder {
		m.Files = append(m.Files, byStore[s]...)
	}
	if err != nil {
		return m, err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return m, err
	}
	return m, os.WriteFile(filepath.Join(x.dir, "manifest.json"), data, 0644)
}

func (x *Exporter) Store(ctx context.Context, st database.Store, s schema.Store) ([]File, error) {
	dir := filepath.Join(x.dir, string(s))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var files []File
	for _, e := range x.catalog.Entities(s) {
		cols := Columns(e)
		rows, err := st.FetchColumns(ctx, e, cols, nil, 0)
		if err != nil {
			return files, fmt.Errorf("failed to read %s: %w", e.Name, err)
		}

		path := filepath.Join(dir, e.Name+"."+string(x.format))
		if x.format == CSV {
			err = writeCSV(path, cols, rows)
		} else {
			err = writeJSON(path, cols, rows)
		}
		if err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, File{Store: string(s), Entity: e.Name, Path: path, Rows: len(rows)})
		x.log.Detail("   📄 %s: %d rows → %s", e.Name, len(rows), path)
	}
	return files, nil
}

func writeJSON(path string, cols []string, rows [][]any) error {
	docs := make([]map[string]any, len(rows))
	for i, row := range rows {
		doc := make(map[string]any, len(cols))
		for j, c := range cols {
			doc[c] = row[j]
		}
		docs[i] = doc
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeCSV(path string, cols []string, rows [][]any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, v := range row {
			record[i] = cell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case schema.GeoPoint:
		return fmt.Sprintf("POINT(%s %s)",
			strconv.FormatFloat(x.Longitude, 'f', -1, 64), strconv.FormatFloat(x.Latitude, 'f', -1, 64))
	}
	return fmt.Sprint(v)
}
