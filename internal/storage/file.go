package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

var csvHeader = []string{"title", "link", "summary", "published", "image", "source", "site", "feed", "companies", "products"}

// WriteJSON writes articles as an indented JSON array.
func WriteJSON(w io.Writer, articles []types.Article) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(articles)
}

// WriteCSV writes articles as CSV with a fixed header. List fields are
// joined with "; " so the row stays flat.
func WriteCSV(w io.Writer, articles []types.Article) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, a := range articles {
		row := []string{
			a.Title,
			a.Link,
			a.Summary,
			a.Published,
			a.Image,
			a.Source,
			a.Site,
			a.Feed,
			strings.Join(a.Companies, "; "),
			strings.Join(a.Products, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileStore writes one timestamped snapshot file per refresh.
type FileStore struct {
	dir    string
	format string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStore creates a store writing JSON snapshots under dir.
func NewJSONStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{dir: dir, format: "json", logger: logger.With("component", "file_storage")}
}

// NewCSVStore creates a store writing CSV snapshots under dir.
func NewCSVStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{dir: dir, format: "csv", logger: logger.With("component", "file_storage")}
}

func (s *FileStore) Name() string { return s.format }

// SaveSnapshot writes the full article set to a new timestamped file.
func (s *FileStore) SaveSnapshot(_ context.Context, articles []types.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("articles-%s.%s", time.Now().Format("20060102-150405"), s.format)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	if s.format == "csv" {
		err = WriteCSV(f, articles)
	} else {
		err = WriteJSON(f, articles)
	}
	if err != nil {
		return err
	}

	s.logger.Info("snapshot written", "path", path, "articles", len(articles))
	return nil
}

func (s *FileStore) Close(context.Context) error { return nil }
