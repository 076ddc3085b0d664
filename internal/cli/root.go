// Package cli implements the recollect CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmfarland/recollect/internal/config"
	"github.com/dmfarland/recollect/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recollect",
	Short: "A journal of experiential moments",
	Long:  "Capture first-person moments with their qualities of attention and recall them by meaning, quality, people, and time. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $RECOLLECT_DB or ~/.recollect/journal.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: $RECOLLECT_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("RECOLLECT_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recollect", "journal.db")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("RECOLLECT_CONFIG")
	}
	return config.Load(path)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// qualityMap turns repeated --quality flags into the raw filter shape.
// "mood=open" sets a subtype, "mood" alone asserts presence, and
// "space=here|there" builds an or-set.
func qualityMap(flags []string) map[string]any {
	if len(flags) == 0 {
		return nil
	}
	out := make(map[string]any, len(flags))
	for _, f := range flags {
		k, v, found := strings.Cut(f, "=")
		k = strings.TrimSpace(k)
		if !found {
			out[k] = true
			continue
		}
		if strings.Contains(v, "|") {
			var set []any
			for _, s := range strings.Split(v, "|") {
				set = append(set, strings.TrimSpace(s))
			}
			out[k] = set
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}
