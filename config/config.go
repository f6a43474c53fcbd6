package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects the vector store implementation.
type Backend string

const (
	BackendQdrant   Backend = "qdrant"
	BackendPostgres Backend = "postgres"
)

// Config is the process-wide configuration snapshot, built once at startup
// from the environment and passed into component constructors. Components
// never read env vars themselves.
type Config struct {
	// HTTP server
	ServerAddr  string
	CORSOrigins []string
	ShowSources bool

	// Retrieval pipeline
	TopK            int
	MaxContextChars int
	EnableWebSearch bool
	FreshKeywords   []string

	// OpenAI-compatible services
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbedModel     string
	ChatModel      string
	WebModel       string
	WebDomains     []string
	WebContextSize string
	WebCountry     string
	WebCity        string
	WebRegion      string

	// Vector store
	StoreBackend Backend
	QdrantURL    string
	QdrantAPIKey string
	Collection   string
	VectorSize   int
	PostgresDSN  string

	// Corpus building
	CorpusDir     string
	CorpusCSV     string
	ChunkSize     int
	ChunkOverlap  int
	DocCharLimit  int
	SiteSeeds     []string
	MaxPages      int
	SiteCharLimit int
	MinPageChars  int
	DoclingURL    string

	// Indexing
	BatchSize  int
	BatchPause time.Duration
	Brand      string
}

// Load builds a Config from the environment. Missing required settings
// are a startup failure, not a lazily discovered one.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:  envStr("SERVER_ADDR", ":8000"),
		CORSOrigins: envList("CORS_ORIGINS", "http://localhost:3000"),
		ShowSources: envBool("SHOW_SOURCES", false),

		TopK:            envInt("TOP_K", 24),
		MaxContextChars: envInt("MAX_CONTEXT_CHARS", 24000),
		EnableWebSearch: envBool("ENABLE_WEB_SEARCH", true),
		FreshKeywords:   envList("FRESH_KEYWORDS", defaultFreshKeywords()),

		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbedModel:     envStr("EMBED_MODEL", "text-embedding-3-small"),
		ChatModel:      envStr("CHAT_MODEL", "gpt-4o-mini"),
		WebModel:       envStr("WEB_MODEL", "gpt-4.1"),
		WebDomains:     envList("WEB_ALLOWED_DOMAINS", ""),
		WebContextSize: envStr("WEB_CONTEXT_SIZE", "medium"),
		WebCountry:     strings.TrimSpace(os.Getenv("WEB_LOCATION_COUNTRY")),
		WebCity:        strings.TrimSpace(os.Getenv("WEB_LOCATION_CITY")),
		WebRegion:      strings.TrimSpace(os.Getenv("WEB_LOCATION_REGION")),

		StoreBackend: Backend(envStr("STORE_BACKEND", string(BackendQdrant))),
		QdrantURL:    strings.TrimRight(os.Getenv("QDRANT_URL"), "/"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		Collection:   envStr("COLLECTION", "company_knowledge"),
		VectorSize:   envInt("VECTOR_SIZE", 1536),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),

		CorpusDir:     envStr("CORPUS_DIR", "corpus"),
		CorpusCSV:     envStr("CORPUS_CSV", "data/corpus.csv"),
		ChunkSize:     envInt("CHUNK_SIZE", 1800),
		ChunkOverlap:  envInt("CHUNK_OVERLAP", 120),
		DocCharLimit:  envInt("DOC_CHAR_LIMIT", 25000),
		SiteSeeds:     envList("SITE_SEEDS", ""),
		MaxPages:      envInt("MAX_PAGES", 0),
		SiteCharLimit: envInt("SITE_CHAR_LIMIT", 0),
		MinPageChars:  envInt("MIN_PAGE_CHARS", 200),
		DoclingURL:    os.Getenv("DOCLING_URL"),

		BatchSize:  envInt("BATCH_SIZE", 64),
		BatchPause: time.Duration(envInt("BATCH_PAUSE_MS", 200)) * time.Millisecond,
		Brand:      envStr("BRAND", "datadepot"),
	}

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	switch cfg.StoreBackend {
	case BackendQdrant:
		if cfg.QdrantURL == "" {
			return nil, fmt.Errorf("QDRANT_URL is not set")
		}
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive")
	}
	return cfg, nil
}

// defaultFreshKeywords includes a current-year token so questions like
// "what changed in 2026" prefer the live web over the static corpus.
func defaultFreshKeywords() string {
	year := strconv.Itoa(time.Now().Year())
	return "today,latest,this week,breaking,current,news," + year
}

func envStr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envList(name, def string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		v = def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
