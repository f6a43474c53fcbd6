package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"datadepot/config"
	"datadepot/loader/service"
	loaderstore "datadepot/loader/store"
	"datadepot/model"
	"datadepot/store"
	"datadepot/types"

	"github.com/joho/godotenv"
)

func main() {
	var (
		build = flag.Bool("build", false, "extract and chunk files under CORPUS_DIR into the corpus CSV")
		crawl = flag.Bool("crawl", false, "crawl SITE_SEEDS into the corpus CSV")
		index = flag.Bool("index", false, "embed the corpus CSV and upsert it into the vector store")
		drop  = flag.Bool("drop", false, "drop the vector collection")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	logger := slog.Default()
	ctx := context.Background()

	vs, err := buildStore(ctx, cfg, logger)
	if err != nil {
		log.Fatal("error to connect to vector store: ", err)
	}

	if *drop {
		if err := vs.Drop(ctx); err != nil {
			log.Fatal("drop collection: ", err)
		}
		logger.Info("collection dropped", "collection", cfg.Collection)
	}

	corpus := loaderstore.NewCorpusStore(cfg.CorpusCSV)

	if *build || *crawl {
		builder := service.NewBuilder(cfg, logger)

		var all []types.ChunkRecord
		if *build {
			recs, err := builder.BuildFromDir(ctx, cfg.CorpusDir)
			if err != nil {
				log.Fatal("build corpus: ", err)
			}
			all = append(all, recs...)
		}
		if *crawl {
			if cfg.MaxPages <= 0 {
				logger.Warn("MAX_PAGES is 0, skipping site crawl")
			} else {
				recs, err := builder.BuildFromCrawl(ctx, cfg.SiteSeeds, cfg.MaxPages)
				if err != nil {
					log.Fatal("crawl corpus: ", err)
				}
				all = append(all, recs...)
			}
		}
		if err := corpus.Save(all); err != nil {
			log.Fatal("save corpus: ", err)
		}
		logger.Info("corpus saved", "path", corpus.Path(), "records", len(all))
	}

	if *index {
		records, err := corpus.Load()
		if err != nil {
			log.Fatal("load corpus: ", err)
		}
		client := model.NewOpenAIClient(model.OpenAIConfig{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIKey,
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.ChatModel,
			WebModel:   cfg.WebModel,
		}, logger)
		indexer := service.NewIndexer(vs, client, cfg.BatchSize, cfg.BatchPause, cfg.Brand, logger)
		count, err := indexer.Index(ctx, records)
		if err != nil {
			log.Fatal("index corpus: ", err)
		}
		logger.Info("indexing done", "points", count)
	}
}

func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.VectorStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Collection, cfg.VectorSize, logger)
	default:
		return store.NewQdrantStore(store.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			VectorSize: cfg.VectorSize,
		}, logger), nil
	}
}
