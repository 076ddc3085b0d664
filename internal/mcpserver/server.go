// Package mcpserver wires the journal's MCP tools and creates the server
// instance. No business logic lives here, only wiring.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/dmfarland/recollect/internal/cluster"
	"github.com/dmfarland/recollect/internal/config"
	"github.com/dmfarland/recollect/internal/embedding"
	"github.com/dmfarland/recollect/internal/recall"
	"github.com/dmfarland/recollect/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps holds the collaborators the tools are built over. Embeddings may
// be nil; recall then runs without the semantic factor and without
// similarity grouping.
type Deps struct {
	Store      *store.SQLiteStore
	Embeddings *embedding.Provider
	Config     config.Config
	Log        logrus.FieldLogger
}

// New creates the MCP server with the journal tools registered.
func New(deps Deps) *server.MCPServer {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var sim recall.SimilarityProvider
	var grouper cluster.SimilarityGrouper
	if deps.Embeddings != nil {
		sim = deps.Embeddings
		grouper = deps.Embeddings
	}
	engine := recall.New(deps.Store, recall.Options{
		Similarity:   sim,
		Grouper:      grouper,
		HalfLifeDays: deps.Config.HalfLifeDays,
		DefaultLimit: deps.Config.DefaultLimit,
		Diagnostics:  recall.LogDiagnostics(log),
	})

	s := server.NewMCPServer(
		"recollect",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	experienceTool := NewExperienceTool(deps.Store, deps.Embeddings)
	s.AddTool(experienceTool.Definition(), experienceTool.Handle)

	recallTool := NewRecallTool(deps.Store, engine, deps.Embeddings, log)
	s.AddTool(recallTool.Definition(), recallTool.Handle)

	reconsiderTool := NewReconsiderTool(deps.Store)
	s.AddTool(reconsiderTool.Definition(), reconsiderTool.Handle)

	releaseTool := NewReleaseTool(deps.Store)
	s.AddTool(releaseTool.Definition(), releaseTool.Handle)

	return s
}

// ServeStdio runs the server over stdin/stdout until the client closes
// the stream.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func serverInstructions() string {
	return `Recollect is an experiential journal. Capture first-person moments
with the experience tool, tagging the qualities of attention that were alive
in the moment (embodied, focus, mood, purpose, space, time, presence, each
with optional subtypes like mood.open or focus.narrow). Retrieve moments
with the recall tool: free text, quality terms, experiencer, perspective,
processing stage, reflection links, and natural-language dates all narrow
the result. Use reconsider to rewrite a record wholesale and release to
delete one permanently.`
}
