package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sawpanic/plateau/internal/config"
	"github.com/sawpanic/plateau/internal/plateau"
	"github.com/sawpanic/plateau/internal/sweep"
)

func newMatrixCmd() *cobra.Command {
	var (
		strategy string
		xAxis    string
		yAxis    string
		metric   string
		fixes    []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Render one 2D metric slice of the parameter space",
		Example: `  plateau matrix --strategy "Entry:MA1|Exit:MA1" \
      --x Entry_MA1_shortMA_period --y Entry_MA1_longMA_period \
      --fix Exit_MA1_period=10 --metric Sharpe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixed := make(map[string]string, len(fixes))
			for _, kv := range fixes {
				name, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --fix %q, expected name=value", kv)
				}
				fixed[name] = value
			}

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			sess, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			matrix := sess.Index.BuildMatrix(plateau.MatrixRequest{
				Strategy: strategy,
				XAxis:    xAxis,
				YAxis:    yAxis,
				Fixed:    fixed,
				Metric:   metric,
			})
			scale := plateau.ScaleFor(metric, matrix)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"matrix": matrix, "scale": scale})
			}

			printMatrix(matrix, scale)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Strategy key (see `plateau strategies`)")
	cmd.Flags().StringVar(&xAxis, "x", "", "Qualified parameter name for the X axis")
	cmd.Flags().StringVar(&yAxis, "y", "", "Qualified parameter name for the Y axis")
	cmd.Flags().StringVar(&metric, "metric", sweep.MetricSharpe, "Metric: Sharpe|Sortino|Calmar|Max_drawdown")
	cmd.Flags().StringArrayVar(&fixes, "fix", nil, "Fixed parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	cmd.MarkFlagRequired("strategy")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")

	return cmd
}

func printMatrix(m plateau.Matrix, scale plateau.Scale) {
	fmt.Printf("%s over %s (x) vs %s (y): %d/%d cells valid\n",
		m.Metric, m.XAxis, m.YAxis, m.ValidCells, m.TotalCells)
	if d := m.Diagnostics; d.AmbiguousCells > 0 || d.ConversionFailures > 0 {
		fmt.Printf("diagnostics: %d ambiguous, %d conversion failures\n",
			d.AmbiguousCells, d.ConversionFailures)
	}

	w := tabwriter.NewWriter(os.Stdout, 4, 4, 2, ' ', 0)
	fmt.Fprintf(w, "y\\x\t%s\n", strings.Join(m.XLabels, "\t"))
	for y, label := range m.YLabels {
		cells := make([]string, len(m.XLabels))
		for x := range m.XLabels {
			if m.Valid[y][x] {
				cells[x] = fmt.Sprintf("%.2f", m.Values[y][x])
			} else {
				cells[x] = "-"
			}
		}
		fmt.Fprintf(w, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}
	w.Flush()

	if scale.HasZRange {
		fmt.Printf("colorscale %s band=%s range=[%.2f, %.2f]\n", scale.Metric, scale.Band, scale.ZMin, scale.ZMax)
	}
}
