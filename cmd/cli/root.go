package main

import (
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"gomend/adapters/coercer"
	"gomend/adapters/excel"
	"gomend/adapters/postgres"
	"gomend/adapters/report"
	"gomend/domain/table"
	"gomend/internal"
	"gomend/internal/cleaning"
	"gomend/internal/config"
	"gomend/internal/errors"
	"gomend/internal/missing"
	"gomend/internal/outlier"
	"gomend/internal/planner"
	"gomend/ports"
)

// cli holds the flags shared by every command and the services built from
// the loaded configuration.
type cli struct {
	fs     afero.Fs
	stdout io.Writer

	cfgFile string
	input   string
	sheet   string
	query   string
	out     string
	format  string

	cfg     *config.Config
	log     *internal.Logger
	engine  *missing.Engine
	suite   *outlier.Suite
	cleaner *cleaning.Service
	planner *planner.Planner
}

func newRootCmd(fs afero.Fs, stdout io.Writer) *cobra.Command {
	c := &cli{fs: fs, stdout: stdout}

	rootCmd := &cobra.Command{
		Use:           "gomend",
		Short:         "Detect and repair missing values and outliers in tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "Path to a yaml configuration file")
	flags.StringVarP(&c.input, "input", "i", "", "Input file (.csv or .xlsx)")
	flags.StringVar(&c.sheet, "sheet", "", "Sheet to read from an xlsx input (default: first)")
	flags.StringVar(&c.query, "query", "", "SQL query to read the table from postgres.url")
	flags.StringVarP(&c.out, "out", "o", "", "Write the resulting table to this file (.csv or .xlsx)")
	flags.StringVarP(&c.format, "format", "f", "text", "Report format: text|json|yaml|markdown|html")
	rootCmd.SetOut(stdout)

	rootCmd.AddCommand(
		newProfileCmd(c),
		newSummaryCmd(c),
		newPlanCmd(c),
		newRepairCmd(c),
		newOutliersCmd(c),
		newTransformCmd(c),
		newServeCmd(c),
	)
	return rootCmd
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c.engine = missing.NewEngine(c.log)
	c.suite = outlier.NewSuite(c.log, cfg.Outliers)
	c.cleaner = cleaning.NewService(c.log, c.engine, c.suite)
	c.planner = planner.New(c.log, c.engine)
	return nil
}

// reader picks the table source from --input or --query.
func (c *cli) reader(ctx context.Context) (ports.TableReader, func(), error) {
	switch {
	case c.input != "" && c.query != "":
		return nil, nil, errors.InvalidInput("--input and --query are mutually exclusive")
	case c.input != "":
		coercion := coercer.DefaultCoercionConfig()
		coercion.MissingTokens = c.cfg.Cleaning.MissingTokens
		opts := []excel.Option{excel.WithCoercion(coercion), excel.WithLogger(c.log)}
		if c.sheet != "" {
			opts = append(opts, excel.WithSheet(c.sheet))
		}
		r, err := excel.NewDataReader(c.fs, c.input, opts...)
		return r, func() {}, err
	case c.query != "":
		if c.cfg.Postgres.URL == "" {
			return nil, nil, errors.ConfigInvalid("postgres.url is required with --query")
		}
		db, err := postgres.Connect(ctx, c.cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewQueryReader(db, c.query), func() { db.Close() }, nil
	}
	return nil, nil, errors.InvalidInput("one of --input or --query is required")
}

func (c *cli) readTable(ctx context.Context) (*table.Table, error) {
	r, done, err := c.reader(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return r.ReadTable(ctx)
}

func (c *cli) render(doc report.Document) error {
	format, err := report.ParseFormat(c.format)
	if err != nil {
		return err
	}
	return report.Render(c.stdout, format, doc)
}

// emit writes t to --out, or renders a preview on stdout when no output
// file is given.
func (c *cli) emit(title string, t *table.Table) error {
	if c.out == "" {
		return c.render(report.Table(title, t))
	}
	dw, err := excel.NewDataWriter(c.fs, c.out)
	if err != nil {
		return err
	}
	var w ports.TableWriter = dw
	if err := w.WriteTable(t); err != nil {
		return err
	}
	c.log.Info("wrote %d rows to %s", t.NumRows(), c.out)
	return nil
}

// parseConstant reads a --constant flag value with the same inference the
// readers apply to a single cell. An empty flag is the missing value.
func parseConstant(raw string) table.Value {
	return coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()).CoerceValue(raw)
}
