package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/resume-screener/internal/store"
)

const PromptBack = "back"

var candidatesCmd = &cobra.Command{
	Use:   "candidates [id]",
	Short: "List stored candidates or show one of them",
	Args:  cobra.MaximumNArgs(1),
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

		if len(args) == 1 {
			rec, err := st.Get(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("candidate with ID %s not found", args[0])
			}
			if err != nil {
				return err
			}
			printCandidate(rec)
			return nil
		}

		interactive, _ := cmd.Flags().GetBool("interactive")
		if interactive {
			return browseCandidates(ctx, st)
		}

		records, err := st.All(ctx)
		if err != nil {
			return err
		}
		printCandidates(records)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().BoolP("interactive", "i", false, "pick candidates from an interactive list")
}

func printCandidates(records []*store.Record) {
	if len(records) == 0 {
		fmt.Println("No candidates stored yet.")
		return
	}

	fmt.Printf("%-5s %-25s %-30s %-20s\n", "ID", "Name", "Email", "Created")
	fmt.Println(strings.Repeat("-", 83))

	for _, rec := range records {
		fmt.Printf("%-5s %-25s %-30s %-20s\n", rec.ID, shorten(rec.DisplayName(), 25), shorten(rec.Email, 30), rec.CreatedAt)
	}
}

func printCandidate(rec *store.Record) {
	bold := color.New(color.Bold)

	bold.Printf("Candidate %s\n", rec.ID)
	fmt.Printf("  Name:     %s\n", rec.Name)
	fmt.Printf("  File:     %s\n", rec.Filename)
	fmt.Printf("  Email:    %s\n", rec.Email)
	fmt.Printf("  Phone:    %s\n", rec.Phone)
	fmt.Printf("  Created:  %s\n", rec.CreatedAt)

	fmt.Println()
	bold.Println("Skills")
	for _, skill := range rec.SkillsList() {
		fmt.Printf("  - %s\n", strings.TrimSpace(skill))
	}

	fmt.Println()
	bold.Println("Education")
	fmt.Println(indent(rec.Education))

	fmt.Println()
	bold.Println("Experience")
	fmt.Println(indent(rec.Experience))
}

func browseCandidates(ctx context.Context, st store.Store) error {
	for {
		records, err := st.All(ctx)
		if err != nil {
			return err
		}

		items := make([]string, 0, len(records)+1)
		for _, rec := range records {
			items = append(items, fmt.Sprintf("%s %s / %s", rec.ID, rec.DisplayName(), rec.Email))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
			Size:  15,
		}

		_, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}

		if selected == PromptBack {
			return nil
		}

		id := strings.Split(selected, " ")[0]
		rec, err := st.Get(ctx, id)
		if err != nil {
			return err
		}

		printCandidate(rec)
		fmt.Println()
	}
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func indent(s string) string {
	if strings.TrimSpace(s) == "" {
		return "  (none)"
	}
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
