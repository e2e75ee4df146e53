package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/subcommands"
	"github.com/olekukonko/tablewriter"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type reportCmd struct {
	owner    string
	currency string
	out      io.Writer
	// open returns the repository to report on; nil uses the configured backend.
	open func(ctx context.Context) (storage.Repository, func() error, error)
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print an owner's monthly report from the configured backend" }
func (*reportCmd) Usage() string {
	return `fintrack-calc report -owner <id> [-currency <code>]

  Reads DATA_BACKEND and SQLITE_DB_PATH (or .env) and prints the monthly
  income/expense history followed by the expense breakdown by category.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner whose records are reported")
	f.StringVar(&c.currency, "currency", "", "ISO currency used to display amounts (defaults to CURRENCY)")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" {
		fmt.Fprintln(os.Stderr, "Error: -owner is required")
		return subcommands.ExitUsageError
	}

	open := c.open
	if open == nil {
		open = openConfigured
	}
	repo, closeRepo, err := open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeRepo()

	logger := log.Default()
	svc := services.NewTransactionService(repo, query.NewEngine(logger), nil, nil, logger)
	rep, err := svc.Report(ctx, c.owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	currency := c.currency
	if currency == "" {
		currency = config.Load().Currency
	}
	renderReport(writerOr(c.out), rep, currency)
	return subcommands.ExitSuccess
}

func openConfigured(ctx context.Context) (storage.Repository, func() error, error) {
	if err := cli.LoadEnvFile(); err != nil {
		return nil, nil, err
	}
	cfg := config.Load()
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(log.Nop()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	return res.Repository, res.Cleanup, nil
}

func renderReport(w io.Writer, rep services.Report, currency string) {
	monthly := tablewriter.NewWriter(w)
	monthly.SetHeader([]string{"Month", "Income", "Expenses", "Net"})
	monthly.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, m := range rep.Monthly {
		monthly.Append([]string{
			m.Label,
			core.FormatAmount(m.Income, currency),
			core.FormatAmount(m.Expenses, currency),
			core.FormatAmount(m.Income.Sub(m.Expenses), currency),
		})
	}
	monthly.SetFooter([]string{
		"Total",
		core.FormatAmount(rep.Totals.Income, currency),
		core.FormatAmount(rep.Totals.Expenses, currency),
		core.FormatAmount(rep.Totals.Balance, currency),
	})
	monthly.Render()

	if len(rep.Breakdown) == 0 {
		return
	}
	fmt.Fprintln(w)
	breakdown := tablewriter.NewWriter(w)
	breakdown.SetHeader([]string{"#", "Category", "Spent"})
	breakdown.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for i, c := range rep.Breakdown {
		breakdown.Append([]string{strconv.Itoa(i + 1), c.Name, core.FormatAmount(c.Amount, currency)})
	}
	breakdown.Render()
}
