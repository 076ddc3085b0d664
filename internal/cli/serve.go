package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dmfarland/recollect/internal/config"
	"github.com/dmfarland/recollect/internal/embedding"
	"github.com/dmfarland/recollect/internal/mcpserver"
	"github.com/dmfarland/recollect/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal over MCP stdio",
		Long:  "Expose the experience, recall, reconsider, and release tools to MCP clients over stdin/stdout.",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	// Stdout carries the protocol; logs go to stderr.
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	provider := newEmbeddingProvider(cfg, s)
	if provider == nil {
		log.Info("embeddings disabled; recall runs without the semantic factor")
	}

	srv := mcpserver.New(mcpserver.Deps{
		Store:      s,
		Embeddings: provider,
		Config:     cfg,
		Log:        log,
	})

	log.WithField("db", getDBPath()).Info("serving MCP on stdio")
	if err := mcpserver.ServeStdio(srv); err != nil {
		exitErr("serve", err)
	}
}

// newEmbeddingProvider resolves the embedder for any command that scores
// or groups semantically. Config wins over the environment; nil means
// embeddings are disabled.
func newEmbeddingProvider(cfg config.Config, s *store.SQLiteStore) *embedding.Provider {
	if cfg.Embedding.Provider != "" {
		embedder, name := embedderFromConfig(cfg)
		return embedding.NewProvider(embedder, s, name, cfg.SimilarityThreshold)
	}
	if embedder, name := embedding.NewFromEnv(); embedder != nil {
		return embedding.NewProvider(embedder, s, name, cfg.SimilarityThreshold)
	}
	return nil
}

func embedderFromConfig(cfg config.Config) (embedding.Embedder, string) {
	model := cfg.Embedding.Model
	switch cfg.Embedding.Provider {
	case "ollama":
		if model == "" {
			model = "nomic-embed-text"
		}
		return embedding.NewOllamaEmbedder(model), "ollama/" + model
	case "openai":
		if model == "" {
			model = "text-embedding-3-small"
		}
		return embedding.NewOpenAIEmbedder(cfg.Embedding.URL, os.Getenv("OPENAI_API_KEY"), model, 0), "openai/" + model
	}
	return nil, ""
}
