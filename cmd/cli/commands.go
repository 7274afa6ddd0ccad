package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gomend/adapters/api"
	"gomend/adapters/excel"
	"gomend/adapters/report"
	"gomend/domain/table"
	"gomend/internal/cleaning"
	"gomend/internal/missing"
	"gomend/internal/oracle"
	"gomend/internal/outlier"
	"gomend/internal/transform"
)

func newProfileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Report missing values per column",
		Long: `Report the missing ratio and severity of every column.

Cells equal to one of cleaning.missing_tokens are counted as missing.

Example: gomend profile --input sales.csv --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}
			r, err := c.engine.ComputeMissingRatios(t, missing.TokensAsMissing(c.cfg.Cleaning.MissingTokens))
			if err != nil {
				return err
			}
			return c.render(report.Missing(r))
		},
	}
}

func newSummaryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize every column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.planner.Summarize(cmd.Context(), t)
			if err != nil {
				return err
			}
			return c.render(report.Summary(s))
		},
	}
}

func newPlanCmd(c *cli) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Suggest a repair strategy for every column with missing values",
		Long: `Suggest a repair strategy per column: mean for numeric columns, forward
fill for datetime columns and mode otherwise.

With --apply the plan is executed and the repaired table is written to --out.

Example: gomend plan --input sales.csv --apply --out clean.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := c.planner.Plan(t)
			if err != nil {
				return err
			}
			if !apply {
				return c.render(report.Plan(plan))
			}
			out, err := c.planner.Apply(t, plan)
			if err != nil {
				return err
			}
			return c.emit("Repaired table", out)
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Execute the plan")
	return cmd
}

func newRepairCmd(c *cli) *cobra.Command {
	var column, strategy, constant string

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Repair the missing values of one column",
		Long: `Repair the missing values of one column with a strategy:
mode, mean, median, constant, remove_row, remove_column, ffill or bfill.

Example: gomend repair --input sales.csv --column price --strategy median --out clean.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy == "" {
				strategy = c.cfg.Cleaning.DefaultStrategy
			}
			st, err := missing.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}
			out, err := c.engine.Repair(t, table.ParseRef(column), st, parseConstant(constant))
			if err != nil {
				return err
			}
			return c.emit("Repaired table", out)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column name or zero-based position")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Repair strategy (default: cleaning.default_strategy)")
	cmd.Flags().StringVar(&constant, "constant", "", "Fill value for the constant strategy")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

// detectorFlags are the parameters shared by the outlier subcommands.
type detectorFlags struct {
	method        string
	threshold     float64
	contamination float64
	eps           float64
	minSamples    int
	neighbors     int
}

func (f *detectorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.method, "detector", "", "iqr|zscore|frequency|isolation_forest|elliptic_envelope|mahalanobis|dbscan|lof|auto (default: cleaning.default_detector)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "IQR multiplier, z-score cut or frequency cut")
	cmd.Flags().Float64Var(&f.contamination, "contamination", 0, "Expected outlier share for model detectors")
	cmd.Flags().Float64Var(&f.eps, "eps", 0, "DBSCAN neighbourhood radius")
	cmd.Flags().IntVar(&f.minSamples, "min-samples", 0, "DBSCAN core point size")
	cmd.Flags().IntVar(&f.neighbors, "neighbors", 0, "LOF neighbours")
}

func (f *detectorFlags) detector(fallback string) (outlier.Detector, error) {
	name := f.method
	if name == "" {
		name = fallback
	}
	m, err := outlier.ParseMethod(name)
	if err != nil {
		return outlier.Detector{}, err
	}
	return outlier.Detector{
		Method:        m,
		Threshold:     f.threshold,
		Contamination: f.contamination,
		Eps:           f.eps,
		MinSamples:    f.minSamples,
		NNeighbors:    f.neighbors,
	}, nil
}

func newOutliersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outliers",
		Short: "Detect or repair outliers",
	}
	cmd.AddCommand(newDetectCmd(c), newHandleCmd(c))
	return cmd
}

func newDetectCmd(c *cli) *cobra.Command {
	var columns []string
	var df detectorFlags

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List the rows a detector flags",
		Long: `List the rows a detector flags. Univariate detectors read the first
column; model detectors fit over every column given.

Example: gomend outliers detect --input sales.csv --columns price,qty --detector lof`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := df.detector(c.cfg.Cleaning.DefaultDetector)
			if err != nil {
				return err
			}
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}
			refs := make([]table.ColumnRef, len(columns))
			for i, name := range columns {
				refs[i] = table.ParseRef(name)
			}
			if d.Method == outlier.MethodAuto && len(refs) > 0 {
				chosen, _, err := c.suite.ChooseMethod(t, refs[0])
				if err != nil {
					return err
				}
				d = outlier.Detector{Method: chosen}
			}
			if !d.Method.Multivariate() && len(refs) > 1 {
				refs = refs[:1]
			}

			rows, err := c.suite.Detect(t, refs, d)
			if err != nil {
				return err
			}
			return c.render(report.Outliers(detection(t, refs, d.Method, rows)))
		},
	}

	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to fit, by name or zero-based position")
	df.register(cmd)
	_ = cmd.MarkFlagRequired("columns")
	return cmd
}

// detection collects the flagged rows with the rendered cells of refs.
func detection(t *table.Table, refs []table.ColumnRef, method outlier.Method, rows table.RowSet) (report.Detection, map[table.RowID][]string) {
	d := report.Detection{Method: string(method), Rows: rows.IDs()}
	var cols []*table.Column
	for _, ref := range refs {
		if col, err := oracle.Validate(t, ref); err == nil {
			cols = append(cols, col.Column)
			d.Columns = append(d.Columns, col.Name())
		}
	}
	values := make(map[table.RowID][]string, rows.Len())
	for _, id := range d.Rows {
		pos, ok := t.Position(id)
		if !ok {
			continue
		}
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = excel.FormatCell(col.At(pos))
		}
		values[id] = cells
	}
	return d, values
}

func newHandleCmd(c *cli) *cobra.Command {
	var column, strategy, constant string
	var df detectorFlags

	cmd := &cobra.Command{
		Use:   "handle",
		Short: "Mask outliers as missing and repair them",
		Long: `Mask the rows a detector flags in one column as missing, then repair the
column with a missing-value strategy.

Without --out the repair report is printed; with --out the repaired table is
written instead.

Example: gomend outliers handle --input sales.csv --column price --detector zscore --strategy median --out clean.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := df.detector(c.cfg.Cleaning.DefaultDetector)
			if err != nil {
				return err
			}
			if strategy == "" {
				strategy = c.cfg.Cleaning.DefaultStrategy
			}
			st, err := missing.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}

			outcome, err := c.cleaner.Handle(t, cleaning.Request{
				Column:   table.ParseRef(column),
				Detector: d,
				Strategy: st,
				Constant: parseConstant(constant),
			})
			if err != nil {
				return err
			}
			if c.out == "" {
				return c.render(report.Handled(outcome))
			}
			return c.emit("Repaired table", outcome.Table)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column name or zero-based position")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Repair strategy (default: cleaning.default_strategy)")
	cmd.Flags().StringVar(&constant, "constant", "", "Fill value for the constant strategy")
	df.register(cmd)
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newTransformCmd(c *cli) *cobra.Command {
	var column, kind string

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Apply log or sqrt to a numeric column",
		Long: `Apply log or sqrt to a numeric column. Cells outside the domain of the
transform become missing.

Example: gomend transform --input sales.csv --column price --kind log --out logged.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := transform.Parse(kind)
			if err != nil {
				return err
			}
			t, err := c.readTable(cmd.Context())
			if err != nil {
				return err
			}
			res, err := transform.Apply(t, table.ParseRef(column), f)
			if err != nil {
				return err
			}
			c.log.Info("%s %s: %d transformed, %d out of domain", f.Kind, column, res.Transformed, res.Dropped)
			return c.emit("Transformed table", res.Table)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column name or zero-based position")
	cmd.Flags().StringVar(&kind, "kind", "log", "log|sqrt")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cleaning API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				c.cfg.Server.Port = strings.TrimPrefix(port, ":")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default: server.port)")
	return cmd
}

func serve(ctx context.Context, c *cli) error {
	srv := api.NewServer(c.cfg, c.log)
	c.log.Info("listening on :%s", c.cfg.Server.Port)
	return srv.ListenAndServe(ctx)
}
