package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
	"github.com/ZanzyTHEbar/review-sentiment/internal/app"
	"github.com/ZanzyTHEbar/review-sentiment/internal/classifier"
	"github.com/ZanzyTHEbar/review-sentiment/internal/config"
	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sentiment",
		Usage: "score reviews and manage the training corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "directory holding the corpus database",
				EnvVars: []string{"DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "lexicon",
				Usage:   "YAML lexicon overriding the built-in aspects and tiers",
				EnvVars: []string{"LEXICON_FILE"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log progress to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool("verbose") {
				level = slog.LevelInfo
			}
			slog.SetDefault(monitoring.NewLoggerWithWriter(c.App.ErrWriter, level).Logger)
			return nil
		},
		Commands: []*cli.Command{
			scoreCommand(),
			reconcileCommand(),
			importCommand(),
			trainCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if path := c.String("lexicon"); path != "" {
		cfg.LexiconFile = path
	}
	return cfg, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type scoreOutput struct {
	analysis.Result
	MLLabel        analysis.Label           `json:"ml_label,omitempty"`
	Reconciliation *analysis.Reconciliation `json:"reconciliation,omitempty"`
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "run the rule engine over one review",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "review text, read from stdin when omitted"},
			&cli.BoolFlag{Name: "baseline", Usage: "reconcile against the lexicon baseline classifier"},
		},
		Action: func(c *cli.Context) error {
			text := c.String("text")
			if text == "" {
				text = c.Args().First()
			}
			if text == "" {
				data, err := io.ReadAll(c.App.Reader)
				if err != nil {
					return err
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return cli.Exit("review text is required", 2)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			lx, err := app.LoadLexicon(cfg.LexiconFile)
			if err != nil {
				return apperrors.NewConfigurationError("invalid lexicon", err)
			}

			out := scoreOutput{Result: analysis.NewAnalyzer(lx).Analyze(text)}
			if c.Bool("baseline") {
				label, probs := classifier.NewVaderClassifier().PredictWithProbabilities(text)
				rec, err := analysis.Reconcile(label, probs, out.OverallScore)
				if err != nil {
					return err
				}
				out.MLLabel = label
				out.Reconciliation = &rec
			}
			return writeJSON(c.App.Writer, out)
		},
	}
}

// parseProbabilities reads label=value pairs
func parseProbabilities(pairs []string) (analysis.Probabilities, error) {
	probs := make(analysis.Probabilities, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("probability %q must look like label=value", pair)
		}
		label, err := analysis.ParseLabel(name)
		if err != nil {
			return nil, err
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("probability %q: %w", pair, err)
		}
		probs[label] = p
	}
	return probs, nil
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "reconcile an ML prediction with a rule score",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Required: true, Usage: "ML label: positive, neutral or negative"},
			&cli.StringSliceFlag{Name: "prob", Aliases: []string{"p"}, Usage: "ML probability as label=value, repeatable"},
			&cli.Float64Flag{Name: "rule-score", Aliases: []string{"s"}, Required: true, Usage: "rule engine overall score in [0,1]"},
		},
		Action: func(c *cli.Context) error {
			label, err := analysis.ParseLabel(c.String("label"))
			if err != nil {
				return err
			}
			probs, err := parseProbabilities(c.StringSlice("prob"))
			if err != nil {
				return err
			}
			rec, err := analysis.Reconcile(label, probs, c.Float64("rule-score"))
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, rec)
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "load labeled reviews from a CSV file into the corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Required: true, Usage: "CSV with review_text and sentiment columns"},
			&cli.StringFlag{Name: "source", Value: "cli", Usage: "source tag stored with each review"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			f, err := os.Open(c.String("csv"))
			if err != nil {
				return err
			}
			defer f.Close()

			db, corpus, err := app.OpenCorpus(cfg)
			if err != nil {
				return err
			}
			defer apperrors.SafeClose(db, "database")

			result, err := corpus.ImportCSV(c.Context, f, c.String("source"))
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, result)
		},
	}
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "train the classifier and print its evaluation report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "train from this CSV instead of the corpus database"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var examples []classifier.Example
			if path := c.String("csv"); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				if examples, _, err = classifier.LoadCSV(f); err != nil {
					return err
				}
			} else {
				db, corpus, err := app.OpenCorpus(cfg)
				if err != nil {
					return err
				}
				defer apperrors.SafeClose(db, "database")

				if examples, err = corpus.TrainingExamples(c.Context); err != nil {
					return err
				}
			}

			model, err := classifier.Train(examples, app.HolderConfig(cfg).Train)
			if err != nil {
				return err
			}
			return writeJSON(c.App.Writer, map[string]interface{}{
				"model":      model.Name(),
				"vocabulary": model.Vocabulary(),
				"report":     model.Report(),
			})
		},
	}
}
