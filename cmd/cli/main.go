package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"trialgate/adapters/configfile"
	"trialgate/adapters/excel"
	"trialgate/adapters/studycard"
	"trialgate/app"
	"trialgate/domain/core"
	"trialgate/domain/scoring"
	"trialgate/domain/trial"
	"trialgate/internal"
	"trialgate/internal/report"
	"trialgate/ports"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "trialgate",
		Short: "Failure-risk scoring for clinical trial study cards",
	}

	rootCmd.AddCommand(
		newScoreCmd(),
		newScoreIDCmd(),
		newSignalsCmd(),
		newValidateConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newScoreCmd() *cobra.Command {
	var (
		configPath  string
		historyPath string
		classPath   string
		class       string
		prior       float64
		asMarkdown  bool
	)

	cmd := &cobra.Command{
		Use:   "score [card.json]",
		Short: "Score one study card and print the audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			card, history, err := loadInputs(args[0], historyPath)
			if err != nil {
				return err
			}

			var classMeta *trial.ClassMetadata
			if classPath != "" {
				reader, err := excel.NewClassMetadataReader(classPath)
				if err != nil {
					return err
				}
				lookup := class
				if lookup == "" {
					lookup = card.DrugClass
				}
				classMeta, err = reader.ForClass(context.Background(), lookup)
				if err != nil {
					return err
				}
			}

			service := app.NewScoreService(cfg, internal.NewDefaultLogger(), nil, nil)
			eval, err := service.ScoreTrial(context.Background(), card, history, classMeta, prior)
			if err != nil {
				return err
			}

			if asMarkdown {
				fmt.Println(report.Markdown(eval.Trail))
				return nil
			}
			out, err := eval.Trail.MarshalIndent()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "scoring config YAML (default: embedded)")
	cmd.Flags().StringVar(&historyPath, "history", "", "version history JSON (array of cards)")
	cmd.Flags().StringVar(&classPath, "class-metadata", "", "class metadata workbook (xlsx)")
	cmd.Flags().StringVar(&class, "class", "", "drug class to look up (default: card's drug_class)")
	cmd.Flags().Float64VarP(&prior, "prior", "p", 0.65, "prior failure probability")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "print a markdown report instead of JSON")
	return cmd
}

func newScoreIDCmd() *cobra.Command {
	var (
		configPath string
		cardsDir   string
		classPath  string
		prior      float64
		asMarkdown bool
	)

	cmd := &cobra.Command{
		Use:   "score-id [trial-id]",
		Short: "Score a trial by id, resolving its card from a card directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trialID, err := core.ParseTrialID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			cards, err := studycard.NewDir(cardsDir)
			if err != nil {
				return err
			}
			var classes ports.ClassMetadataReader
			if classPath != "" {
				classes, err = excel.NewClassMetadataReader(classPath)
				if err != nil {
					return err
				}
			}

			service := app.NewScoreService(cfg, internal.NewDefaultLogger(), nil, nil)
			eval, err := service.ScoreTrialByID(context.Background(), cards, classes, trialID, prior)
			if err != nil {
				return err
			}

			if asMarkdown {
				fmt.Println(report.Markdown(eval.Trail))
				return nil
			}
			out, err := eval.Trail.MarshalIndent()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "scoring config YAML (default: embedded)")
	cmd.Flags().StringVar(&cardsDir, "cards", ".", "directory of <trial-id>.json card snapshots")
	cmd.Flags().StringVar(&classPath, "class-metadata", "", "class metadata workbook (xlsx)")
	cmd.Flags().Float64VarP(&prior, "prior", "p", 0.65, "prior failure probability")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "print a markdown report instead of JSON")
	return cmd
}

func newSignalsCmd() *cobra.Command {
	var historyPath string

	cmd := &cobra.Command{
		Use:   "signals [card.json]",
		Short: "Run only the signal evaluators and print their results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, history, err := loadInputs(args[0], historyPath)
			if err != nil {
				return err
			}

			service := app.NewScoreService(configfile.Default(), internal.NewDefaultLogger(), nil, nil)
			eval, err := service.ScoreTrial(context.Background(), card, history, nil, 0.5)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(eval.Signals, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&historyPath, "history", "", "version history JSON (array of cards)")
	return cmd
}

func newValidateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config [scoring.yaml]",
		Short: "Validate a scoring configuration document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configfile.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("ok: revision %s, %d gates, %d stop rules\n",
				cfg.Revision, len(cfg.Gates), len(cfg.StopRules))
			return nil
		},
	}
}

func loadConfig(path string) (*scoring.Config, error) {
	if path == "" {
		return configfile.Default(), nil
	}
	return configfile.Load(path)
}

func loadInputs(cardPath, historyPath string) (*trial.StudyCard, *trial.VersionHistory, error) {
	reader, err := studycard.NewReader()
	if err != nil {
		return nil, nil, err
	}
	card, err := reader.DecodeFile(cardPath)
	if err != nil {
		return nil, nil, err
	}
	var history *trial.VersionHistory
	if historyPath != "" {
		history, err = reader.DecodeHistoryFile(historyPath)
		if err != nil {
			return nil, nil, err
		}
	}
	return card, history, nil
}
