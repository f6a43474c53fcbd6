package server

import (
	"context"
	"log"
	"log/slog"
	"strings"

	"datadepot/app/agent"
	"datadepot/app/api"
	"datadepot/config"
	"datadepot/model"
	"datadepot/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	cfg := s.cfg

	s.logger.Info("boot",
		"addr", cfg.ServerAddr,
		"backend", cfg.StoreBackend,
		"collection", cfg.Collection,
		"top_k", cfg.TopK,
		"web_search", cfg.EnableWebSearch,
		"web_model", cfg.WebModel,
	)

	vs, err := buildStore(cfg, s.logger)
	if err != nil {
		log.Fatal("error to connect to vector store: ", err)
		return
	}

	client := model.NewOpenAIClient(model.OpenAIConfig{
		BaseURL:        cfg.OpenAIBaseURL,
		APIKey:         cfg.OpenAIKey,
		EmbedModel:     cfg.EmbedModel,
		ChatModel:      cfg.ChatModel,
		WebModel:       cfg.WebModel,
		WebContextSize: cfg.WebContextSize,
		WebCountry:     cfg.WebCountry,
		WebCity:        cfg.WebCity,
		WebRegion:      cfg.WebRegion,
	}, s.logger)

	var (
		app          = fiber.New(fiberConfig)
		pipeline     = agent.New(cfg, client, vs, client, client, s.logger)
		checkHandler = api.NewCheckHandler()
		askHandler   = api.NewAskHandler(pipeline)
	)

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/status", checkHandler.HandleStatus)
	app.Post("/ask", askHandler.HandleAsk)

	if err := app.Listen(cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}

func buildStore(cfg *config.Config, logger *slog.Logger) (store.VectorStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return store.NewPostgresStore(context.Background(), cfg.PostgresDSN, cfg.Collection, cfg.VectorSize, logger)
	default:
		return store.NewQdrantStore(store.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
			VectorSize: cfg.VectorSize,
		}, logger), nil
	}
}
