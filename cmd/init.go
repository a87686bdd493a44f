package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/stepwise/internal/config"
	"github.com/chriserin/stepwise/internal/db"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize stepwise in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInit(cmd.OutOrStdout())
		},
	}
}

// RunInit writes a default stepwise.yaml, creates the features directory and
// the results database, and keeps the database out of git. Existing files are
// left alone.
func RunInit(w io.Writer) error {
	// config
	if _, err := os.Stat(config.FileName); err == nil {
		fmt.Fprintf(w, "%s already exists\n", config.FileName)
	} else {
		if err := os.WriteFile(config.FileName, []byte(config.DefaultYAML), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", config.FileName, err)
		}
		fmt.Fprintf(w, "%s created\n", config.FileName)
	}

	cfg, err := config.Load(config.FileName)
	if err != nil {
		return err
	}

	// features directory
	_, err = os.Stat(cfg.Features)
	featuresExist := err == nil
	if err := os.MkdirAll(cfg.Features, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", cfg.Features, err)
	}
	if featuresExist {
		fmt.Fprintf(w, "%s/ already exists\n", cfg.Features)
	} else {
		fmt.Fprintf(w, "%s/ created\n", cfg.Features)
	}

	// database
	_, err = os.Stat(cfg.Database)
	dbExists := err == nil
	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", cfg.Database)
	} else {
		fmt.Fprintf(w, "%s created\n", cfg.Database)
	}

	// gitignore
	msgs, err := ensureGitignore(filepath.Dir(cfg.Database) + "/")
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore(entry string) ([]string, error) {
	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
