package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "release [id]",
		Short: "Permanently delete an experience",
		Args:  cobra.ExactArgs(1),
		Run:   runRelease,
	}

	RootCmd.AddCommand(cmd)
}

func runRelease(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.Release(cmd.Context(), args[0]); err != nil {
		exitErr("release", err)
	}

	fmt.Printf(`{"ok":true,"released":%q}`+"\n", args[0])
}
