package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"
	"github.com/olekukonko/tablewriter"

	"fintrack/internal/core"
	"fintrack/internal/loan"
)

// loanFlags are shared by both calculators.
type loanFlags struct {
	principal string
	rate      string
	period    string
	term      string
	currency  string
}

func (l *loanFlags) register(f *flag.FlagSet) {
	f.StringVar(&l.principal, "principal", "", "Amount borrowed or invested")
	f.StringVar(&l.rate, "rate", "", "Interest rate, read according to -period")
	f.StringVar(&l.period, "period", string(core.PerYear), "Rate period (per_year, per_month, per_100_per_month)")
	f.StringVar(&l.term, "term", "", "Term in years, fractions allowed")
	f.StringVar(&l.currency, "currency", core.DefaultCurrency, "ISO currency used to display amounts")
}

type simpleCmd struct {
	loanFlags
	out io.Writer
}

func (*simpleCmd) Name() string     { return "simple" }
func (*simpleCmd) Synopsis() string { return "compute simple interest on a loan" }
func (*simpleCmd) Usage() string {
	return `fintrack-calc simple -principal <amount> -rate <rate> -term <years> [-period <period>]

  Prints interest, total payable and the flat monthly payment.
`
}

func (c *simpleCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *simpleCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := loan.ParseSimpleInterest(c.principal, c.rate, c.period, c.term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	res, err := loan.ComputeSimpleInterest(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	renderSimple(writerOr(c.out), in, res, c.currency)
	return subcommands.ExitSuccess
}

func renderSimple(w io.Writer, in loan.SimpleInterestInput, res loan.SimpleInterestResult, currency string) {
	table := newKeyValueTable(w)
	table.Append([]string{"Principal", core.FormatAmount(in.Principal, currency)})
	table.Append([]string{"Annual rate", res.AnnualRate.String() + "%"})
	table.Append([]string{"Term (years)", in.TermYears.String()})
	table.Append([]string{"Interest", core.FormatAmount(res.Interest, currency)})
	table.Append([]string{"Total payable", core.FormatAmount(res.TotalPayable, currency)})
	table.Append([]string{"Monthly payment", core.FormatAmount(res.MonthlyPayment, currency)})
	table.Render()
}

type compoundCmd struct {
	loanFlags
	frequency string
	out       io.Writer
}

func (*compoundCmd) Name() string     { return "compound" }
func (*compoundCmd) Synopsis() string { return "compute compound interest" }
func (*compoundCmd) Usage() string {
	return "fintrack-calc compound -principal <amount> -rate <rate> -term <years> [-frequency " +
		frequencyChoices("|") + "]\n\n  Prints the compound interest and final amount.\n"
}

func (c *compoundCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.frequency, "frequency", strconv.Itoa(int(loan.Monthly)),
		"Compounding periods per year ("+frequencyChoices(", ")+")")
}

// frequencyChoices lists the accepted -frequency values, e.g. "1|2|4|12".
func frequencyChoices(sep string) string {
	var parts []string
	for _, f := range loan.Frequencies() {
		parts = append(parts, strconv.Itoa(int(f)))
	}
	return strings.Join(parts, sep)
}

func (c *compoundCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := loan.ParseCompoundInterest(c.principal, c.rate, c.period, c.term, c.frequency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	res, err := loan.ComputeCompoundInterest(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	renderCompound(writerOr(c.out), in, res, c.currency)
	return subcommands.ExitSuccess
}

func renderCompound(w io.Writer, in loan.CompoundInterestInput, res loan.CompoundInterestResult, currency string) {
	table := newKeyValueTable(w)
	table.Append([]string{"Principal", core.FormatAmount(in.Principal, currency)})
	table.Append([]string{"Annual rate", res.AnnualRate.String() + "%"})
	table.Append([]string{"Compounding", in.Frequency.String()})
	table.Append([]string{"Term (years)", in.TermYears.String()})
	table.Append([]string{"Compound interest", core.FormatAmount(res.CompoundInterest, currency)})
	table.Append([]string{"Total amount", core.FormatAmount(res.TotalAmount, currency)})
	table.Render()
}

func newKeyValueTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Item", "Value"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	return table
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
