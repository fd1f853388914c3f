package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/intake"
	"github.com/spigell/resume-screener/internal/resume"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Parse resumes and store them as candidates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return fmt.Errorf("creating a logger: %w", err)
		}
		defer logger.Sync()

		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		st, err := openStore(ctx, config.Store, logger)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		failed := 0
		for _, path := range args {
			filename := resume.SecureFilename(filepath.Base(path))
			if !resume.AllowedFile(filename) {
				fmt.Printf("%s %s: invalid file type, allowed: %s\n", color.RedString("✗"), path, strings.Join(resume.AllowedList(), ", "))
				failed++
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				logger.Error("reading resume", zap.String("path", path), zap.Error(err))
				failed++
				continue
			}

			rec, err := intake.Ingest(ctx, st, logger, filename, data)
			if err != nil {
				fmt.Printf("%s %s: %v\n", color.RedString("✗"), path, err)
				failed++
				continue
			}

			fmt.Printf("%s %s stored as candidate %s (%s)\n", color.GreenString("✓"), path, color.CyanString(rec.ID), rec.DisplayName())
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
