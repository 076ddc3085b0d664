package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a single experience",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	exp, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("show", err)
	}

	if formatFlag == "text" {
		fmt.Println(exp.Source)
		return
	}
	b, _ := json.MarshalIndent(exp, "", "  ")
	fmt.Println(string(b))
}
