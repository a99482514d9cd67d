// Package cli implements briefctl, a terminal front end for the brief pipeline.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"MarketBrief/internal/di"
	"MarketBrief/internal/domain/models"
	"MarketBrief/internal/services/normalizer"
	"MarketBrief/internal/services/session"
	"MarketBrief/internal/services/sizing"
	"MarketBrief/pkg/config"
	pkgkafka "MarketBrief/pkg/kafka"
	"MarketBrief/pkg/util"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "briefctl",
		Short: "MarketBrief - market questions answered from live data",
		Long: `briefctl runs the MarketBrief pipeline from a terminal: it reads a trader's
question, fetches prices, news and the economic calendar, and prints a structured brief.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAskCmd(opts))
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newSizeCmd())
	rootCmd.AddCommand(newTailCmd(opts))

	return rootCmd
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(o.configPath)
	if err != nil {
		return nil, err
	}
	// A one-shot run cannot wait for stream ticks, and logs would drown the output.
	cfg.Sources.Finnhub.Stream.Enabled = false
	cfg.Log.Output = "stderr"
	if o.debug {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	return cfg, nil
}

func newAskCmd(root *rootOptions) *cobra.Command {
	var (
		req     models.BriefRequest
		tf      string
		asJSON  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   `ask "<message>"`,
		Short: "Generate a brief for a question",
		Long: `Generate a brief for a free-text question.
Example: briefctl ask "Why did gold drop today?" --account 10000 --risk 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Message = strings.Join(args, " ")
			if tf != "" {
				parsed, ok := normalizer.ParseTimeframe(tf)
				if !ok {
					return fmt.Errorf("unknown timeframe %q", tf)
				}
				req.Timeframe = parsed
			}

			cfg, err := root.load()
			if err != nil {
				return err
			}
			uc, cleanup, err := di.InitializeBriefUseCase(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			b, err := uc.Generate(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), b)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderBrief(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Instrument, "instrument", "", "Instrument override, e.g. XAUUSD")
	cmd.Flags().StringVar(&tf, "timeframe", "", "Timeframe override, e.g. H4")
	cmd.Flags().Float64Var(&req.AccountSize, "account", 0, "Account size in USD")
	cmd.Flags().Float64Var(&req.RiskPercent, "risk", 0, "Risk per trade in percent")
	cmd.Flags().Float64Var(&req.EntryPrice, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&req.StopLoss, "stop", 0, "Stop loss price")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the brief as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Overall deadline")

	return cmd
}

func newSessionCmd() *cobra.Command {
	var (
		at     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the trading session at a time (now by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := time.Now().UTC()
			if at != "" {
				parsed, ok := util.ParseTime(at)
				if !ok {
					return fmt.Errorf("--at must be RFC3339 or unix seconds, got %q", at)
				}
				t = parsed.UTC()
			}
			s := session.GetMarketSession(t)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSession(s, session.Describe(s)))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Time to evaluate (RFC3339 or unix seconds)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newSizeCmd() *cobra.Command {
	var (
		req    models.PositionSizeRequest
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Calculate a position size",
		Long: `Calculate a position size from account, risk and stop.
Example: briefctl size --instrument EURUSD --account 10000 --risk 1 --entry 1.085 --stop 1.08`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Instrument != "" {
				sym, err := normalizer.ResolveSymbol(req.Instrument)
				if err != nil {
					return err
				}
				req.Instrument = sym
			}
			res := sizing.CalculatePositionSize(req)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPosition(res))
			if !res.OK() {
				return fmt.Errorf("%s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Instrument, "instrument", "", "Instrument, e.g. XAUUSD")
	cmd.Flags().Float64Var(&req.AccountSize, "account", 0, "Account size in USD")
	cmd.Flags().Float64Var(&req.RiskPercent, "risk", 1, "Risk per trade in percent")
	cmd.Flags().Float64Var(&req.EntryPrice, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&req.StopLoss, "stop", 0, "Stop loss price")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("stop")
	return cmd
}

func newTailCmd(root *rootOptions) *cobra.Command {
	var (
		group     string
		fromStart bool
		raw       bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow briefs published to Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return fmt.Errorf("kafka.brokers is not configured")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			return pkgkafka.Tail(ctx, pkgkafka.ReaderConfig{
				Brokers:   cfg.Kafka.Brokers,
				Topic:     cfg.Kafka.BriefTopic,
				GroupID:   group,
				FromStart: fromStart,
			}, func(_, value []byte) error {
				if raw {
					_, err := fmt.Fprintln(out, string(value))
					return err
				}
				var b models.Brief
				if err := json.Unmarshal(value, &b); err != nil {
					fmt.Fprintln(out, warnStyle.Render("skipping undecodable message: "+err.Error()))
					return nil
				}
				fmt.Fprintln(out, renderTailLine(&b))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Consumer group (reads all partitions)")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "Read from the earliest offset")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw message values")
	return cmd
}

func renderTailLine(b *models.Brief) string {
	inst := b.Instrument
	if inst == "" {
		inst = "-"
	}
	line := fmt.Sprintf("%s %s %s", mutedStyle.Render(b.CreatedAt.Format(time.RFC3339)), labelStyle.Render(fmt.Sprintf("%-8s", inst)), b.Message)
	if n := len(b.ValidationWarnings); n > 0 {
		line += warnStyle.Render(fmt.Sprintf(" [%d warnings]", n))
	}
	return line
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
