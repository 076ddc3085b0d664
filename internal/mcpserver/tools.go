package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/dmfarland/recollect/internal/embedding"
	"github.com/dmfarland/recollect/internal/model"
	"github.com/dmfarland/recollect/internal/recall"
	"github.com/dmfarland/recollect/internal/store"
)

// ExperienceTool captures a new experience.
type ExperienceTool struct {
	store      *store.SQLiteStore
	embeddings *embedding.Provider
}

func NewExperienceTool(s *store.SQLiteStore, e *embedding.Provider) *ExperienceTool {
	return &ExperienceTool{store: s, embeddings: e}
}

func (t *ExperienceTool) Definition() mcp.Tool {
	return mcp.NewTool("experience",
		mcp.WithDescription("Capture a first-person experiential moment"),
		mcp.WithString("source", mcp.Required(),
			mcp.Description("The experience itself, in the experiencer's words")),
		mcp.WithString("experiencer", mcp.Required(),
			mcp.Description("Who had the experience")),
		mcp.WithString("perspective",
			mcp.Description("Grammatical perspective: I, we, you, or they")),
		mcp.WithString("processing",
			mcp.Description("When it was put into words: during, right-after, or long-after")),
		mcp.WithObject("qualities",
			mcp.Description(`Qualities of attention. Keys are dimensions (embodied, focus, mood, purpose, space, time, presence); values are true, false, or a subtype string like "open"`)),
		mcp.WithBoolean("crafted",
			mcp.Description("Whether the words were deliberately shaped rather than raw")),
		mcp.WithArray("reflects",
			mcp.Description("Ids of earlier experiences this one reflects on")),
	)
}

func (t *ExperienceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	experiencer, err := req.RequireString("experiencer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	qualities, err := qualitiesArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	exp, err := t.store.Capture(ctx, store.CaptureParams{
		Source:      source,
		Experiencer: experiencer,
		Perspective: req.GetString("perspective", ""),
		Processing:  req.GetString("processing", ""),
		Qualities:   qualities,
		Crafted:     req.GetBool("crafted", false),
		Reflects:    req.GetStringSlice("reflects", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if t.embeddings != nil {
		if err := t.embeddings.Index(ctx, []model.Experience{*exp}); err != nil {
			// The record is stored; the vector catches up on the next recall.
			return jsonResult(map[string]any{"experience": exp, "warning": fmt.Sprintf("embedding deferred: %v", err)})
		}
	}
	return jsonResult(map[string]any{"experience": exp})
}

// RecallTool queries the journal.
type RecallTool struct {
	store      *store.SQLiteStore
	engine     *recall.Engine
	embeddings *embedding.Provider
	log        logrus.FieldLogger
}

func NewRecallTool(s *store.SQLiteStore, e *recall.Engine, emb *embedding.Provider, log logrus.FieldLogger) *RecallTool {
	return &RecallTool{store: s, engine: e, embeddings: emb, log: log}
}

func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("recall",
		mcp.WithDescription("Recall experiences by meaning, qualities, people, and time"),
		mcp.WithString("query",
			mcp.Description(`Free-text query. Quality terms ("mood.open") combine with OR`)),
		mcp.WithArray("query_terms",
			mcp.Description("Query as separate terms; quality terms combine with AND. Takes precedence over query")),
		mcp.WithObject("qualities",
			mcp.Description(`Structured quality filter: {"mood": "open"}, {"focus": true}, {"space": ["here", "there"]}`)),
		mcp.WithString("who", mcp.Description("Only experiences by this experiencer")),
		mcp.WithString("perspective", mcp.Description("Only this perspective: I, we, you, they")),
		mcp.WithString("processing", mcp.Description("Only this processing stage: during, right-after, long-after")),
		mcp.WithBoolean("has_reflection", mcp.Description("Only experiences that have (or lack) a later reflection")),
		mcp.WithString("reflected_by", mcp.Description("Only experiences a given record reflects on")),
		mcp.WithObject("created",
			mcp.Description(`Creation-time filter. Either {"on": "last week"} (at-or-after for plain dates) or {"start": "2024-02-01", "end": "2024-02-10"} (inclusive)`)),
		mcp.WithString("sort", mcp.Description("relevance (default) or created")),
		mcp.WithString("group_by", mcp.Description("Cluster results: who, date, qualities, perspective, or similarity")),
		mcp.WithNumber("limit", mcp.Description("Page size, default 20")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	)
}

func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := recall.Query{
		Search:      req.GetString("query", ""),
		SearchTerms: req.GetStringSlice("query_terms", nil),
		Who:         req.GetString("who", ""),
		Perspective: req.GetString("perspective", ""),
		Processing:  req.GetString("processing", ""),
		ReflectedBy: req.GetString("reflected_by", ""),
		Sort:        req.GetString("sort", ""),
		GroupBy:     req.GetString("group_by", ""),
		Limit:       req.GetInt("limit", 0),
		Offset:      req.GetInt("offset", 0),
	}

	args := req.GetArguments()
	if v, ok := args["has_reflection"].(bool); ok {
		q.HasReflection = &v
	}
	if raw, ok := args["qualities"].(map[string]any); ok {
		q.RawQualityFilter = raw
	}
	if raw, ok := args["created"]; ok {
		df, err := dateFilterArg(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		q.Created = df
	}

	if t.embeddings != nil {
		// Backfill vectors for anything captured while embeddings were
		// unavailable. Failures degrade to keyword-only relevance.
		if snap, err := t.store.Snapshot(ctx); err == nil {
			if err := t.embeddings.Index(ctx, snap); err != nil {
				t.log.WithError(err).Warn("vector backfill failed")
			}
		}
	}

	result, err := t.engine.Recall(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// ReconsiderTool rewrites an experience wholesale.
type ReconsiderTool struct {
	store *store.SQLiteStore
}

func NewReconsiderTool(s *store.SQLiteStore) *ReconsiderTool {
	return &ReconsiderTool{store: s}
}

func (t *ReconsiderTool) Definition() mcp.Tool {
	return mcp.NewTool("reconsider",
		mcp.WithDescription("Replace an experience wholesale; its id and creation time are kept, every omitted field is cleared"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the experience to replace")),
		mcp.WithString("source", mcp.Required(), mcp.Description("The replacement text")),
		mcp.WithString("experiencer", mcp.Required(), mcp.Description("Who had the experience")),
		mcp.WithString("perspective", mcp.Description("I, we, you, or they")),
		mcp.WithString("processing", mcp.Description("during, right-after, or long-after")),
		mcp.WithObject("qualities", mcp.Description("Qualities of attention, same shape as the experience tool")),
		mcp.WithBoolean("crafted", mcp.Description("Whether the words were deliberately shaped")),
		mcp.WithArray("reflects", mcp.Description("Ids of earlier experiences this one reflects on")),
	)
}

func (t *ReconsiderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	experiencer, err := req.RequireString("experiencer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	qualities, err := qualitiesArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	exp, err := t.store.Reconsider(ctx, store.ReconsiderParams{
		ID:          id,
		Source:      source,
		Experiencer: experiencer,
		Perspective: req.GetString("perspective", ""),
		Processing:  req.GetString("processing", ""),
		Qualities:   qualities,
		Crafted:     req.GetBool("crafted", false),
		Reflects:    req.GetStringSlice("reflects", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"experience": exp})
}

// ReleaseTool permanently deletes an experience.
type ReleaseTool struct {
	store *store.SQLiteStore
}

func NewReleaseTool(s *store.SQLiteStore) *ReleaseTool {
	return &ReleaseTool{store: s}
}

func (t *ReleaseTool) Definition() mcp.Tool {
	return mcp.NewTool("release",
		mcp.WithDescription("Permanently delete an experience"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the experience to release")),
	)
}

func (t *ReleaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.store.Release(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"released": id})
}

func qualitiesArg(req mcp.CallToolRequest) (model.QualityVector, error) {
	raw, ok := req.GetArguments()["qualities"].(map[string]any)
	if !ok {
		return model.QualityVector{}, nil
	}
	q, err := model.QualityVectorFromMap(raw)
	if err != nil {
		return model.QualityVector{}, fmt.Errorf("qualities: %w", err)
	}
	return q, nil
}

func dateFilterArg(raw any) (*recall.DateFilter, error) {
	switch v := raw.(type) {
	case string:
		return &recall.DateFilter{On: v}, nil
	case map[string]any:
		df := &recall.DateFilter{}
		if s, ok := v["on"].(string); ok {
			df.On = s
		}
		if s, ok := v["start"].(string); ok {
			df.Start = s
		}
		if s, ok := v["end"].(string); ok {
			df.End = s
		}
		if df.On == "" && df.Start == "" && df.End == "" {
			return nil, fmt.Errorf(`created: expected "on" or "start"/"end"`)
		}
		return df, nil
	default:
		return nil, fmt.Errorf("created: expected a string or an object")
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
