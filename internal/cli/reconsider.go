package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmfarland/recollect/internal/model"
	"github.com/dmfarland/recollect/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reconsider [id] [source]",
		Short: "Replace an experience wholesale",
		Long: `Replace an experience wholesale. The id and creation time are kept;
every field not given is cleared, not preserved.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runReconsider,
	}

	cmd.Flags().StringP("who", "w", "", "Experiencer (required)")
	cmd.Flags().String("perspective", "", "Perspective: I, we, you, they")
	cmd.Flags().String("processing", "", "Processing stage: during, right-after, long-after")
	cmd.Flags().StringArrayP("quality", "q", nil, `Quality of attention, repeatable: "mood=open" or bare "embodied"`)
	cmd.Flags().Bool("crafted", false, "Mark the words as deliberately shaped")
	cmd.Flags().String("reflects", "", "Comma-separated ids of experiences this one reflects on")

	cmd.MarkFlagRequired("who")

	RootCmd.AddCommand(cmd)
}

func runReconsider(cmd *cobra.Command, args []string) {
	id := args[0]
	who, _ := cmd.Flags().GetString("who")
	perspective, _ := cmd.Flags().GetString("perspective")
	processing, _ := cmd.Flags().GetString("processing")
	qualityFlags, _ := cmd.Flags().GetStringArray("quality")
	crafted, _ := cmd.Flags().GetBool("crafted")
	reflectsStr, _ := cmd.Flags().GetString("reflects")

	var source string
	if len(args) > 1 {
		source = strings.Join(args[1:], " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			source = string(b)
		}
	}
	if strings.TrimSpace(source) == "" {
		exitErr("reconsider", fmt.Errorf("replacement text is required (positional arg or stdin)"))
	}

	qualities, err := model.QualityVectorFromMap(qualityMap(qualityFlags))
	if err != nil {
		exitErr("reconsider", err)
	}

	var reflects []string
	if reflectsStr != "" {
		for _, r := range strings.Split(reflectsStr, ",") {
			if r = strings.TrimSpace(r); r != "" {
				reflects = append(reflects, r)
			}
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	exp, err := s.Reconsider(cmd.Context(), store.ReconsiderParams{
		ID:          id,
		Source:      strings.TrimSpace(source),
		Experiencer: who,
		Perspective: perspective,
		Processing:  processing,
		Qualities:   qualities,
		Crafted:     crafted,
		Reflects:    reflects,
	})
	if err != nil {
		exitErr("reconsider", err)
	}

	b, _ := json.Marshal(exp)
	fmt.Println(string(b))
}
