package service

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"datadepot/config"
	"datadepot/loader/internal"
	"datadepot/types"
)

// Builder walks document trees and crawl results and turns them into
// chunk records ready for indexing.
type Builder struct {
	cfg       *config.Config
	extractor *internal.Extractor
	crawler   *internal.Crawler
	logger    *slog.Logger
}

func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		cfg:       cfg,
		extractor: internal.NewExtractor(cfg.DoclingURL, logger),
		crawler: internal.NewCrawler(internal.CrawlerConfig{
			MinPageChars:  cfg.MinPageChars,
			PageCharLimit: cfg.SiteCharLimit,
		}, logger),
		logger: logger,
	}
}

// BuildFromDir extracts and chunks every file under root. A file that
// cannot be read contributes zero text; it never aborts the build.
// Zero-byte files are skipped outright.
func (b *Builder) BuildFromDir(ctx context.Context, root string) ([]types.ChunkRecord, error) {
	b.logger.Info("scanning corpus", "root", root)

	var records []types.ChunkRecord
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() == 0 {
			return nil
		}

		text, err := b.extractor.ExtractFile(ctx, path)
		if err != nil {
			b.logger.Warn("failed to read file", "path", path, "error", err)
			return nil
		}
		records = append(records, b.chunkRecords(path, text)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("corpus built", "records", len(records))
	return records, nil
}

// BuildFromCrawl crawls each seed up to limit pages and chunks the
// retained page texts.
func (b *Builder) BuildFromCrawl(ctx context.Context, seeds []string, limit int) ([]types.ChunkRecord, error) {
	var records []types.ChunkRecord
	for _, seed := range seeds {
		pages, err := b.crawler.Crawl(ctx, seed, limit)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			records = append(records, b.chunkRecords(page.URL, page.Text)...)
		}
	}
	b.logger.Info("crawl corpus built", "records", len(records))
	return records, nil
}

// chunkRecords normalizes, caps the document at the configured character
// limit and splits it into overlapping chunks.
func (b *Builder) chunkRecords(source, text string) []types.ChunkRecord {
	text = internal.Normalize(text)
	if b.cfg.DocCharLimit > 0 && len(text) > b.cfg.DocCharLimit {
		text = text[:b.cfg.DocCharLimit]
	}

	var records []types.ChunkRecord
	idx := 0
	for chunk := range internal.Chunks(text, b.cfg.ChunkSize, b.cfg.ChunkOverlap) {
		records = append(records, types.ChunkRecord{
			Source: source,
			Text:   chunk,
			Index:  idx,
		})
		idx++
	}
	return records
}
