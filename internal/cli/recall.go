package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dmfarland/recollect/internal/recall"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query...]",
		Short: "Recall experiences",
		Long: `Recall experiences by meaning, qualities, people, and time.
Multiple query args are separate terms; quality terms among them combine
with AND. A single quoted query combines quality terms with OR.`,
		Run: runRecall,
	}

	cmd.Flags().StringP("who", "w", "", "Filter by experiencer")
	cmd.Flags().String("perspective", "", "Filter by perspective")
	cmd.Flags().String("processing", "", "Filter by processing stage")
	cmd.Flags().StringArrayP("quality", "q", nil, `Structured quality filter, repeatable: "mood=open", "space=here|there", bare "embodied"`)
	cmd.Flags().Bool("has-reflection", false, "Only experiences with a later reflection")
	cmd.Flags().Bool("no-reflection", false, "Only experiences without a later reflection")
	cmd.Flags().String("reflected-by", "", "Only experiences the given record reflects on")
	cmd.Flags().String("on", "", `Creation-time expression, e.g. "yesterday", "June 2023", "morning"`)
	cmd.Flags().String("from", "", "Range start date (inclusive)")
	cmd.Flags().String("to", "", "Range end date (inclusive)")
	cmd.Flags().String("sort", "", "Sort: relevance (default) or created")
	cmd.Flags().StringP("group-by", "g", "", "Cluster results: who, date, qualities, perspective, similarity")
	cmd.Flags().IntP("limit", "l", 0, "Page size (default 20)")
	cmd.Flags().Int("offset", 0, "Page offset")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("config", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	q := recall.Query{}
	if len(args) == 1 {
		q.Search = args[0]
	} else if len(args) > 1 {
		q.SearchTerms = args
	}

	q.Who, _ = cmd.Flags().GetString("who")
	q.Perspective, _ = cmd.Flags().GetString("perspective")
	q.Processing, _ = cmd.Flags().GetString("processing")
	q.ReflectedBy, _ = cmd.Flags().GetString("reflected-by")
	q.Sort, _ = cmd.Flags().GetString("sort")
	q.GroupBy, _ = cmd.Flags().GetString("group-by")
	q.Limit, _ = cmd.Flags().GetInt("limit")
	q.Offset, _ = cmd.Flags().GetInt("offset")

	qualityFlags, _ := cmd.Flags().GetStringArray("quality")
	q.RawQualityFilter = qualityMap(qualityFlags)

	if hasRefl, _ := cmd.Flags().GetBool("has-reflection"); hasRefl {
		v := true
		q.HasReflection = &v
	}
	if noRefl, _ := cmd.Flags().GetBool("no-reflection"); noRefl {
		v := false
		q.HasReflection = &v
	}

	on, _ := cmd.Flags().GetString("on")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	if on != "" || from != "" || to != "" {
		q.Created = &recall.DateFilter{On: on, Start: from, End: to}
	}

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())

	opts := recall.Options{
		HalfLifeDays: cfg.HalfLifeDays,
		DefaultLimit: cfg.DefaultLimit,
		Diagnostics:  recall.LogDiagnostics(log),
	}
	if provider := newEmbeddingProvider(cfg, s); provider != nil {
		if snap, err := s.Snapshot(cmd.Context()); err == nil {
			if err := provider.Index(cmd.Context(), snap); err != nil {
				log.WithError(err).Warn("vector backfill failed")
			}
		}
		opts.Similarity = provider
		opts.Grouper = provider
	}

	result, err := recall.New(s, opts).Recall(cmd.Context(), q)
	if err != nil {
		exitErr("recall", err)
	}

	if formatFlag == "text" {
		printRecallText(cmd, result)
		return
	}
	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}

func printRecallText(cmd *cobra.Command, result *recall.Result) {
	if result.Total == 0 {
		fmt.Println("no experiences found")
		return
	}
	for _, e := range result.Experiences {
		labels := e.Qualities.Labels()
		line := fmt.Sprintf("%s  %.3f  [%s]  %s", e.ID, e.Score, e.Experiencer, e.Source)
		if len(labels) > 0 {
			line += "  (" + strings.Join(labels, ", ") + ")"
		}
		fmt.Println(line)
	}
	if len(result.Clusters) > 0 {
		fmt.Println()
		for _, c := range result.Clusters {
			fmt.Printf("cluster %s: %d experiences\n", c.ID, c.Size)
		}
	}
	fmt.Printf("\n%d of %d\n", len(result.Experiences), result.Total)
}
