package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spigell/resume-screener/internal/jobdesc"
	"github.com/spigell/resume-screener/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank stored candidates against a job description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		job, err := jobDescription(cmd)
		if err != nil {
			return err
		}

		minScore, _ := cmd.Flags().GetFloat64("min-score")
		asJSON, _ := cmd.Flags().GetBool("output-json")

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

		matcher, err := newMatcher(ctx, config.Oracle, logger)
		if err != nil {
			return err
		}

		records, err := st.All(ctx)
		if err != nil {
			return err
		}

		results := matcher.MatchAll(ctx, records, job, minScore)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		printResults(results, len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("job", "", "job description text")
	matchCmd.Flags().String("job-file", "", "file with the job description (plain text or HTML)")
	matchCmd.Flags().Float64("min-score", 0, "drop candidates scoring below this value")
	matchCmd.Flags().Bool("output-json", false, "print results as JSON")
}

func jobDescription(cmd *cobra.Command) (string, error) {
	job, _ := cmd.Flags().GetString("job")
	file, _ := cmd.Flags().GetString("job-file")

	if job != "" && file != "" {
		return "", errors.New("use either --job or --job-file, not both")
	}

	if file != "" {
		text, err := jobdesc.Load(file)
		if err != nil {
			return "", err
		}
		job = text
	}

	job = strings.TrimSpace(job)
	if job == "" {
		return "", errors.New("job description is required (--job or --job-file)")
	}

	return job, nil
}

func printResults(results []matching.Result, total int) {
	fmt.Println(color.New(color.Bold, color.Underline).Sprintf("Matched %d of %d candidates", len(results), total))
	fmt.Println()

	for i, r := range results {
		fmt.Printf("%2d. %s %s  %s\n", i+1, colorScore(r), shorten(r.CandidateName, 40), color.HiBlackString("#"+r.CandidateID))

		if r.Error != "" {
			fmt.Printf("    %s %s\n", color.RedString("✗"), r.Error)
			continue
		}
		if r.Justification != "" {
			fmt.Printf("    %s\n", r.Justification)
		}
		if len(r.Matches) > 0 {
			fmt.Printf("    %s %s\n", color.CyanString("matches:"), strings.Join(r.Matches, ", "))
		}
		if r.Recommendation != "" {
			fmt.Printf("    %s %s\n", color.CyanString("recommendation:"), r.Recommendation)
		}
	}
}

func colorScore(r matching.Result) string {
	score := fmt.Sprintf("%.2f", r.Score)
	switch {
	case r.Error != "":
		return color.RedString("ERR ")
	case r.Score >= 0.8:
		return color.GreenString(score)
	case r.Score >= 0.5:
		return color.YellowString(score)
	default:
		return color.RedString(score)
	}
}
