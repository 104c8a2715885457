package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/spendify/internal/extract"
)

type assemblyReport struct {
	Receipt         extract.Receipt `json:"receipt"`
	Degraded        bool            `json:"degraded"`
	TotalOutcome    string          `json:"total_outcome"`
	TaxOutcome      string          `json:"tax_outcome"`
	CurrencyMatched bool            `json:"currency_matched"`
	Missing         []string        `json:"missing,omitempty"`
}

func newParseCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Assemble a receipt from a raw model completion (file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) > 0 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening completion: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading completion: %w", err)
			}
			return runParse(cmd.OutOrStdout(), string(raw), details)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "include the fallback report")

	return cmd
}

func runParse(w io.Writer, raw string, details bool) error {
	a := extract.Assemble(raw)
	if !details {
		return printJSON(w, a.Receipt)
	}
	return printJSON(w, assemblyReport{
		Receipt:         a.Receipt,
		Degraded:        a.Degraded,
		TotalOutcome:    a.Total.Outcome.String(),
		TaxOutcome:      a.Tax.Outcome.String(),
		CurrencyMatched: a.CurrencyMatched,
		Missing:         a.Missing,
	})
}

func newAmountCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "amount <text>",
		Short: "Normalize a free-form amount to two decimals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := extract.ParseAmount(strings.Join(args, " "))
			if details {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.Value, a.Outcome, a.Token)
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), a.Value)
			return err
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "also print the outcome and source token")

	return cmd
}

func newCurrencyCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "currency <text>",
		Short: "Classify a currency hint to its symbol",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, matched := extract.ClassifyCurrency(strings.Join(args, " "))
			if details {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%t\n", c, matched)
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), c)
			return err
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "also print whether a keyword matched")

	return cmd
}
