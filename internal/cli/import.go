package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmfarland/recollect/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import experiences from JSON",
		Long:  "Import experiences from JSON on stdin. Expects the format produced by export; creation times are preserved, ids are reassigned.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var experiences []model.Experience
	if err := json.Unmarshal(data, &experiences); err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), experiences)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
