// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-assistant/internal/conversation"
	"github.com/pdiddy/paper-assistant/internal/critic"
	"github.com/pdiddy/paper-assistant/internal/evalsuite"
	"github.com/pdiddy/paper-assistant/internal/metrics"
	"github.com/pdiddy/paper-assistant/internal/search"
	"github.com/pdiddy/paper-assistant/internal/store"
	"github.com/pdiddy/paper-assistant/internal/tool"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run and inspect the graded evaluation suite",
	Long: `Eval runs a suite of paper requests through the assistant and has a
critic model score each conversation on completeness, accuracy, robustness,
tool usage, and efficiency. Results go to a JSONL file and, with --db, to a
SQLite run history that report and runs read back.`,
}

// --- run subcommand ---

var evalRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation suite",
	Long: `Run truncates the results file, then processes each selected prompt in
order and appends one JSON line per prompt as soon as it finishes. A prompt
whose conversation fails is recorded with the error and the suite continues.`,
	RunE: runEvalRun,
}

func runEvalRun(cmd *cobra.Command, args []string) error {
	prompts, err := selectedPrompts(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	model, err := newChatModel(cmd.Context(), cfg.LLM)
	if err != nil {
		return err
	}

	tools := tool.NewRegistry(tool.NewSearchTool(search.NewClient(cfg.Search)))
	driver, err := conversation.NewDriver(model, tools, nil, cfg.Conversation)
	if err != nil {
		return err
	}

	runner := &evalsuite.Runner{
		Driver: driver,
		Critic: critic.New(model),
		Output: flagOrConfig(cmd, "output", "eval.output"),
		Model:  cfg.LLM.Provider + "/" + cfg.LLM.Model,
	}

	if dbPath := flagOrConfig(cmd, "db", "eval.db_path"); dbPath != "" {
		s, err := openStore(dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		runner.Store = s
	}

	summary, runErr := runner.Run(cmd.Context(), prompts, os.Stdout)

	fmt.Fprintln(os.Stdout)
	summary.Print(os.Stdout)

	if path := flagOrConfig(cmd, "metrics-file", "eval.metrics_file"); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
	}
	return runErr
}

func selectedPrompts(cmd *cobra.Command) ([]evalsuite.Prompt, error) {
	prompts := evalsuite.BuiltinPrompts()
	if suite, _ := cmd.Flags().GetString("suite"); suite != "" {
		loaded, err := evalsuite.LoadSuite(suite)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}
	ids, _ := cmd.Flags().GetIntSlice("prompts")
	return evalsuite.Select(prompts, ids)
}

// --- prompts subcommand ---

var evalPromptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the suite prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts, err := selectedPrompts(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%-4s  %s\n", "ID", "Prompt")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
		for _, p := range prompts {
			fmt.Fprintf(os.Stdout, "%-4d  %s\n", p.ID, p.Text)
		}
		fmt.Fprintf(os.Stdout, "\n%d prompts\n", len(prompts))
		return nil
	},
}

// --- runs subcommand ---

var evalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded evaluation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(flagOrConfig(cmd, "db", "eval.db_path"))
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-30s  %s\n", "Run", "Started", "Model", "Results")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
		for _, r := range runs {
			modelName := r.Model
			if len(modelName) > 30 {
				modelName = modelName[:27] + "..."
			}
			status := fmt.Sprintf("%d/%d", r.ResultCount, r.PromptCount)
			if !r.Finished() {
				status += " (unfinished)"
			}
			fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-30s  %s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), modelName, status)
		}
		fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
		return nil
	},
}

// --- report subcommand ---

var evalReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show score averages for a recorded run",
	Long: `Report reads a run from the SQLite history (the most recent run unless
--run is given) and prints per-criterion averages over the prompts that
received a verdict. Use --format yaml or json to export the full run.`,
	RunE: runEvalReport,
}

func runEvalReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	runID, _ := cmd.Flags().GetString("run")

	s, err := openStore(flagOrConfig(cmd, "db", "eval.db_path"))
	if err != nil {
		return err
	}
	defer s.Close()

	switch format {
	case "table", "":
		report, err := s.Report(cmd.Context(), runID)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	case "yaml":
		return s.ExportYAML(cmd.Context(), runID, os.Stdout)
	case "json":
		return s.ExportJSON(cmd.Context(), runID, os.Stdout)
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, or json", format)
	}
}

func printReport(report store.RunReport) {
	fmt.Fprintf(os.Stdout, "Run %s (%s), started %s\n\n",
		report.Run.ID, report.Run.Model, report.Run.StartedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(os.Stdout, "%-4s  %-60s  %s\n", "ID", "Prompt", "Outcome")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, rec := range report.Results {
		prompt := rec.UserPrompt
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-60s  %s\n", rec.OverallPromptID, prompt, outcome(rec))
	}
	fmt.Fprintln(os.Stdout)

	avgs := make(map[types.Criterion]float64, len(report.Averages))
	for k, v := range report.Averages {
		avgs[types.Criterion(k)] = v
	}
	evalsuite.PrintAverages(os.Stdout, avgs, report.Evaluated)
}

func outcome(rec types.EvalRecord) string {
	switch {
	case rec.Failed():
		return "error: " + rec.ErrorDuringProcessing
	case rec.CriticEvaluation == nil:
		return "-"
	case rec.CriticEvaluation.OK():
		v := rec.CriticEvaluation.Verdict
		scores := make([]string, len(types.Criteria))
		for i, c := range types.Criteria {
			scores[i] = fmt.Sprintf("%d", v.Score(c))
		}
		return strings.Join(scores, " ")
	}
	return "critic failed"
}

func init() {
	for _, c := range []*cobra.Command{evalRunCmd, evalPromptsCmd} {
		c.Flags().IntSlice("prompts", nil, "prompt IDs to run (default: all)")
		c.Flags().String("suite", "", "YAML suite file replacing the built-in prompts")
	}
	evalRunCmd.Flags().String("output", "", "JSONL results file (default "+evalsuite.DefaultOutput+")")
	evalRunCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")

	for _, c := range []*cobra.Command{evalRunCmd, evalRunsCmd, evalReportCmd} {
		c.Flags().String("db", "", "SQLite run history (default "+store.DefaultPath+" for runs and report)")
	}
	evalReportCmd.Flags().String("run", "", "run ID (default: most recent)")
	evalReportCmd.Flags().String("format", "table", "output format: table, yaml, json")

	evalCmd.AddCommand(evalRunCmd, evalPromptsCmd, evalRunsCmd, evalReportCmd)
	rootCmd.AddCommand(evalCmd)
}
