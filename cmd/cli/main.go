package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/adapter/importer"
)

const idWidth = 12

type cliOptions struct {
	baseURL string
	timeout time.Duration
	json    bool
}

func (o *cliOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:          "ledgerly-cli",
		Short:        "Ledgerly CLI tool",
		Long:         `A command line interface for recording and inspecting entries of a Ledgerly ledger.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the Ledgerly API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(
		entriesCmd(opts),
		importCmd(opts),
		balanceCmd(opts),
		ledgerCmd(opts),
	)

	return rootCmd
}

func entriesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Entry operations",
	}

	var (
		kind   string
		amount string
		at     string
		code   string
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a deposit or expense",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amount)
			}

			req := dto.AddEntryRequest{Type: kind, Amount: value}
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at, want RFC3339: %w", err)
				}
				req.OccurredAt = &t
			}
			if code != "" {
				req.Code = &code
			}

			var resp dto.AddEntryResponse
			if err := opts.client().do(cmd.Context(), "POST", "/api/v1/entries", req, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, resp)
			}
			fmt.Fprintf(out, "Added %s %s (id %s)\n", resp.Entry.TypeLabel, resp.Entry.AmountDisplay, resp.Entry.ID)
			fmt.Fprintf(out, "Balance: %s\n", resp.TotalBalanceDisplay)
			return nil
		},
	}
	addCmd.Flags().StringVar(&kind, "type", "", "Entry type: deposit or expense")
	addCmd.Flags().StringVar(&amount, "amount", "", "Positive amount")
	addCmd.Flags().StringVar(&at, "at", "", "Occurrence time (RFC3339), defaults to now")
	addCmd.Flags().StringVar(&code, "code", "", "External transaction code")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("amount")

	var (
		filter   string
		page     int
		pageSize int
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if filter != "" {
				q.Set("type", filter)
			}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if pageSize > 0 {
				q.Set("page_size", strconv.Itoa(pageSize))
			}

			path := "/api/v1/entries"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var resp dto.EntryPageResponse
			if err := opts.client().do(cmd.Context(), "GET", path, nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, resp)
			}
			printEntries(out, &resp)
			return nil
		},
	}
	listCmd.Flags().StringVar(&filter, "type", "", "Only show deposits or expenses")
	listCmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")
	listCmd.Flags().IntVar(&pageSize, "page-size", 0, "Entries per page")

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func importCmd(opts *cliOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from the configured source or a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp dto.ImportResponse
				err  error
			)

			if file == "" {
				err = opts.client().do(cmd.Context(), "POST", "/api/v1/entries/import", nil, &resp)
			} else {
				var req *dto.ImportBatchRequest
				req, err = readBatch(file)
				if err != nil {
					return err
				}
				err = opts.client().do(cmd.Context(), "POST", "/api/v1/entries/import/batch", req, &resp)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, resp)
			}
			fmt.Fprintf(out, "Imported: %d\nSkipped: %d\n", resp.Imported, resp.Skipped)
			for _, r := range resp.Rejections {
				fmt.Fprintf(out, "  #%d %s: %s\n", r.Index, r.Code, r.Reason)
			}
			fmt.Fprintf(out, "Balance: %s\n", resp.TotalBalanceDisplay)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of transaction records")

	return cmd
}

func readBatch(path string) (*dto.ImportBatchRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := importer.DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &dto.ImportBatchRequest{Records: records}, nil
}

func balanceCmd(opts *cliOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the total balance, optionally as of a past instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/balance"
			if at != "" {
				if _, err := time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at, want RFC3339: %w", err)
				}
				path += "?" + url.Values{"at": {at}}.Encode()
			}

			var resp dto.BalanceResponse
			if err := opts.client().do(cmd.Context(), "GET", path, nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, resp)
			}
			if resp.At != nil {
				fmt.Fprintf(out, "Balance at %s: %s\n", resp.At.Format(time.RFC3339), resp.BalanceDisplay)
				return nil
			}
			fmt.Fprintf(out, "Balance: %s\n", resp.BalanceDisplay)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Instant (RFC3339)")

	return cmd
}

func ledgerCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ConsistencyResponse
			if err := opts.client().do(cmd.Context(), "GET", "/api/v1/ledger/consistency", nil, &resp, 409); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				if err := printJSON(out, resp); err != nil {
					return err
				}
			} else {
				if resp.Consistent {
					fmt.Fprintln(out, "Consistency check PASSED")
				} else {
					fmt.Fprintln(out, "Consistency check FAILED")
				}
				fmt.Fprintf(out, "Entries: %d\nMismatches: %d\nTotal balance: %s\n", resp.Entries, resp.Mismatches, resp.TotalBalance)
			}

			if !resp.Consistent {
				return fmt.Errorf("ledger is inconsistent: %d mismatched running balances", resp.Mismatches)
			}
			return nil
		},
	}

	recomputeCmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rewrite every running balance from the entry amounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.RecomputeResponse
			if err := opts.client().do(cmd.Context(), "POST", "/api/v1/ledger/recompute", nil, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return printJSON(out, resp)
			}
			fmt.Fprintf(out, "Recomputed: %d balances rewritten\n", resp.Writes)
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd, recomputeCmd)
	return cmd
}

func printEntries(out io.Writer, page *dto.EntryPageResponse) {
	if len(page.Entries) == 0 {
		fmt.Fprintln(out, "No entries.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOCCURRED\tTYPE\tAMOUNT\tBALANCE\tCODE")
	for _, e := range page.Entries {
		code := "-"
		if e.Code != nil {
			code = *e.Code
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(e.ID, idWidth),
			e.OccurredAt.Format("2006-01-02 15:04"),
			e.TypeLabel,
			e.AmountDisplay,
			e.BalanceDisplay,
			code,
		)
	}
	tw.Flush()

	fmt.Fprintf(out, "\nPage %d (%d entries total). Balance: %s\n", page.Page, page.TotalCount, page.TotalBalanceDisplay)
	if page.NextPage != nil {
		fmt.Fprintf(out, "Next page: %d\n", *page.NextPage)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
