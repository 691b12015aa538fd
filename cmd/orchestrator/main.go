package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/director"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/reflexion"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/router"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/tot"
)

var (
	configFile string
	logLevel   string
	jsonOutput bool
	useMock    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "orchestrator",
		Short: "Route tasks to plugins and reasoning strategies backed by LLM oracles",
		Long: `orchestrator answers free-text tasks by combining capability plugins
	(memory, web search, documents) with reasoning strategies: tree-of-thought
	search, beam search, self-consistency voting, reflexion and
	chain-of-verification.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to routing config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print structured JSON output")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "register the echo backend; it becomes the default only when no provider is configured")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(exploreCmd())
	rootCmd.AddCommand(beamCmd())
	rootCmd.AddCommand(consensusCmd())
	rootCmd.AddCommand(reflectCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(pluginsCmd())
	rootCmd.AddCommand(backendsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp wires the process for one command and tears it down afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn().Err(cerr).Msg("shutdown")
		}
	}()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func askCmd() *cobra.Command {
	var userID string
	var showTrace bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Run one turn through the director",
		Long: `Runs the full turn pipeline: memory, intent detection, grounding and
	execution plugins, up to two reasoning plugins and a final synthesis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				res := a.director.Think(cmd.Context(), args[0], plugin.TurnContext{UserID: userID})
				if jsonOutput {
					out := struct {
						*director.Result
						Error string `json:"error,omitempty"`
					}{Result: res}
					if res.Err != nil {
						out.Error = res.Err.Error()
					}
					if err := printJSON(os.Stdout, out); err != nil {
						return err
					}
					return res.Err
				}
				if res.Err != nil {
					printTrace(os.Stderr, res)
					return res.Err
				}
				fmt.Println(res.Response)
				if showTrace {
					fmt.Fprintln(os.Stderr)
					printTrace(os.Stderr, res)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "cli", "user id for conversation memory")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print the turn trace to stderr")
	return cmd
}

func printTrace(w io.Writer, res *director.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tPLUGIN\tSTATUS\tDURATION\tERROR")
	for _, e := range res.Trace {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Stage, e.Plugin, e.Status, e.Duration.Round(time.Millisecond), e.Error)
	}
	tw.Flush()
	if res.Routing != nil {
		fmt.Fprintf(w, "\nrouting: %s / %s (complexity %.2f, confidence %.2f)\n",
			res.Routing.Intent.Category, res.Routing.Tier, res.Routing.Complexity.Score, res.Routing.Confidence)
	}
	fmt.Fprintf(w, "turn %s in %s; side channels: %s\n", res.TurnID, res.Elapsed.Round(time.Millisecond), strings.Join(res.SideChannels, ", "))
}

func routeCmd() *cobra.Command {
	var forceTier string
	var taskContext string

	cmd := &cobra.Command{
		Use:   "route [task]",
		Short: "Classify a task and show the routing decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := router.Tier(forceTier)
			if forceTier != "" && !tier.Valid() {
				return fmt.Errorf("invalid tier %q", forceTier)
			}
			return withApp(cmd, func(a *app) error {
				d := a.router.Route(cmd.Context(), args[0], router.Options{Context: taskContext, ForceTier: tier})
				if jsonOutput {
					return printJSON(os.Stdout, d)
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "category\t%s (%.2f, %s)\n", d.Intent.Category, d.Intent.Confidence, d.Intent.Source)
				fmt.Fprintf(tw, "complexity\t%.2f (%s)\n", d.Complexity.Score, d.Complexity.Source)
				fmt.Fprintf(tw, "tier\t%s\n", d.Tier)
				fmt.Fprintf(tw, "process\t%s\n", d.Process)
				fmt.Fprintf(tw, "roster\t%s\n", strings.Join(d.Roster, ", "))
				fmt.Fprintf(tw, "confidence\t%.2f\n", d.Confidence)
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&forceTier, "tier", "", "force a tier (simple, standard, complex, multi-agent)")
	cmd.Flags().StringVar(&taskContext, "context", "", "extra context for complexity assessment")
	return cmd
}

func exploreCmd() *cobra.Command {
	opts := tot.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "explore [problem]",
		Short: "Solve a problem with tree-of-thought search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				opts.CallTimeout = a.cfg.Oracle.CallTimeout
				opts.KeepTree = jsonOutput
				res, err := a.tot.Explore(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return printSearch(res)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Breadth, "breadth", opts.Breadth, "children per frontier node")
	cmd.Flags().IntVar(&opts.MaxDepth, "depth", opts.MaxDepth, "maximum search depth")
	cmd.Flags().Float64Var(&opts.EvaluationThreshold, "threshold", opts.EvaluationThreshold, "minimum score to stay on the frontier")
	cmd.Flags().BoolVar(&opts.AggressivePruning, "prune", false, "truncate the frontier to 2x breadth")
	cmd.Flags().BoolVar(&opts.Diversify, "diversify", false, "spread generations across backends")
	return cmd
}

func beamCmd() *cobra.Command {
	var opts tot.BeamOptions

	cmd := &cobra.Command{
		Use:   "beam [problem]",
		Short: "Solve a problem with beam search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				opts.CallTimeout = a.cfg.Oracle.CallTimeout
				opts.KeepTree = jsonOutput
				res, err := a.tot.BeamSearch(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return printSearch(res)
			})
		},
	}

	cmd.Flags().IntVar(&opts.BeamWidth, "width", 3, "nodes kept per level")
	cmd.Flags().IntVar(&opts.Breadth, "breadth", 0, "children per beam node (default: width)")
	cmd.Flags().IntVar(&opts.MaxDepth, "depth", 4, "maximum search depth")
	cmd.Flags().BoolVar(&opts.Diversify, "diversify", false, "spread generations across backends")
	return cmd
}

func printSearch(res *tot.Result) error {
	if jsonOutput {
		return printJSON(os.Stdout, res)
	}
	fmt.Println(res.Answer)
	status := "complete"
	if res.Partial {
		status = "partial"
	}
	fmt.Fprintf(os.Stderr, "\n%s: score %.2f, %d nodes, depth %d, stopped on %s, %s\n",
		status, res.BestScore, res.NodesExplored, res.MaxDepth, res.Termination, res.Duration.Round(time.Millisecond))
	return nil
}

func consensusCmd() *cobra.Command {
	var samples int
	var diversify bool

	cmd := &cobra.Command{
		Use:   "consensus [problem]",
		Short: "Majority-vote over independent solutions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				res, err := a.tot.SelfConsistency(cmd.Context(), args[0], samples, tot.ConsistencyOptions{
					Diversify:   diversify,
					CallTimeout: a.cfg.Oracle.CallTimeout,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(os.Stdout, res)
				}
				fmt.Println(res.Answer)
				fmt.Fprintf(os.Stderr, "\nconfidence %.2f (%d/%d samples succeeded)\n", res.Confidence, res.Successful, res.Samples)
				for _, c := range res.Clusters {
					fmt.Fprintf(os.Stderr, "  %3d  %s\n", c.Votes, c.Answer)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 5, "independent solutions to draw")
	cmd.Flags().BoolVar(&diversify, "diversify", false, "spread samples across backends")
	return cmd
}

func reflectCmd() *cobra.Command {
	opts := reflexion.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "reflect [task]",
		Short: "Answer with an iterative self-critique loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				res, err := a.reflexion.Reflect(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(os.Stdout, res)
				}
				fmt.Println(res.FinalAnswer)
				fmt.Fprintf(os.Stderr, "\n%d attempt(s), confidence %.2f, improved %t\n", len(res.Attempts), res.FinalConfidence, res.Improved)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.MaxAttempts, "attempts", opts.MaxAttempts, "maximum attempts")
	cmd.Flags().Float64Var(&opts.ConfidenceThreshold, "threshold", opts.ConfidenceThreshold, "confidence that ends the loop")
	cmd.Flags().DurationVar(&opts.AttemptTimeout, "attempt-timeout", 0, "abort when one attempt takes longer")
	return cmd
}

func verifyCmd() *cobra.Command {
	var response string

	cmd := &cobra.Command{
		Use:   "verify [task]",
		Short: "Answer with chain-of-verification, or check a given response",
		Long: `Without --response, answers the task, verifies each factual claim and
	regenerates once if any claim fails. With --response, runs a single
	approve/reject check of that response against the task.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if response != "" {
					verdict := a.reflexion.QuickCheck(cmd.Context(), response, args[0])
					if jsonOutput {
						return printJSON(os.Stdout, verdict)
					}
					fmt.Printf("approved: %t\n", verdict.Approved)
					if verdict.Reason != "" {
						fmt.Printf("reason: %s\n", verdict.Reason)
					}
					return nil
				}

				v, err := a.reflexion.Verify(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(os.Stdout, v)
				}
				fmt.Println(v.Final)
				fmt.Fprintf(os.Stderr, "\n%d claim(s), %d failed, revised %t\n", len(v.Claims), len(v.Failed()), v.Revised)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&response, "response", "", "response to approve or reject")
	return cmd
}

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				entries := a.registry.List()
				if jsonOutput {
					type row struct {
						Name         string   `json:"name"`
						Category     string   `json:"category"`
						Priority     int      `json:"priority"`
						Capabilities []string `json:"capabilities"`
						Description  string   `json:"description"`
					}
					rows := make([]row, 0, len(entries))
					for _, e := range entries {
						rows = append(rows, row{e.Name, e.Category, e.Priority, e.Capabilities, e.Description})
					}
					return printJSON(os.Stdout, rows)
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCATEGORY\tPRIORITY\tCAPABILITIES\tDESCRIPTION")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.Name, e.Category, e.Priority, strings.Join(e.Capabilities, ","), e.Description)
				}
				return tw.Flush()
			})
		},
	}
}

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List oracle backends and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				models := make(map[string][]string)
				for _, ad := range a.adapters {
					models[ad.Name()] = ad.Models()
				}

				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "BACKEND\tMODELS\tSTATUS")
				for _, name := range []string{"anthropic", "openai", "google", "deepseek", "ollama", "mock"} {
					status := "not configured"
					if _, ok := models[name]; ok {
						status = "ready"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", name, strings.Join(models[name], ", "), status)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Printf("\nregistered: %s\n", strings.Join(a.oracle.Registered(), ", "))
				fmt.Printf("selectable: %s\n", strings.Join(oracle.SortedBackends(a.oracle), ", "))
				fmt.Printf("default: %s\n", describeDefault(a.cfg.RoutingConfig))
				return nil
			})
		},
	}
}

func describeDefault(cfg *config.RoutingConfig) string {
	if cfg == nil || cfg.Default.Adapter == "" {
		return "first registered backend"
	}
	if cfg.Default.Model == "" {
		return cfg.Default.Adapter
	}
	return cfg.Default.Adapter + "/" + cfg.Default.Model
}
