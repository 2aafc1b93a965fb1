package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-custody/core"
	"github.com/spf13/cobra"
)

func balanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show source and derivative balances of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				account, err := core.ParseAddress(args[0])
				if err != nil {
					return err
				}
				balances, err := rt.coordinator.Balances(ctx, account)
				if err != nil {
					return err
				}
				assets := rt.coordinator.AssetInfo()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", opts.formatSource(rt, balances.Source), assets.Source.Symbol)
				fmt.Fprintf(out, "%s %s\n", opts.formatDerivative(rt, balances.Derivative), assets.Derivative.Symbol)
				return nil
			})
		},
	}
}

func infoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show asset metadata and enabled flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				assets := rt.coordinator.AssetInfo()
				state, err := rt.coordinator.EnabledState(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "source:     %s (%s) %d decimals at %s\n",
					assets.Source.Symbol, assets.Source.Name, assets.Source.Decimals, rt.coordinator.SourceAsset().Hex())
				fmt.Fprintf(out, "derivative: %s (%s) %d decimals\n",
					assets.Derivative.Symbol, assets.Derivative.Name, assets.Derivative.Decimals)
				fmt.Fprintf(out, "scale:      %s\n", assets.Scale.Dec())
				fmt.Fprintf(out, "wrap:       %t\n", state.WrapEnabled)
				fmt.Fprintf(out, "unwrap:     %t\n", state.UnwrapEnabled)
				return nil
			})
		},
	}
}

func reportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Compare custody holdings with outstanding derivative supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				report, err := rt.coordinator.Report(ctx)
				if err != nil {
					return err
				}
				printReport(cmd, opts, rt, report)
				return nil
			})
		},
	}
}

func auditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Fail when custody no longer covers the derivative supply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				auditor, err := core.NewAuditor(rt.coordinator)
				if err != nil {
					return err
				}
				report, err := auditor.Check(ctx)
				if err != nil {
					return err
				}
				printReport(cmd, opts, rt, report)
				return nil
			})
		},
	}
}

func historyCmd(opts *rootOptions) *cobra.Command {
	var (
		account   string
		direction string
		limit     int
		offset    int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List committed conversions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := core.ConversionFilter{Limit: limit, Offset: offset}
			if strings.TrimSpace(account) != "" {
				parsed, err := core.ParseAddress(account)
				if err != nil {
					return err
				}
				filter.Account = &parsed
			}
			if strings.TrimSpace(direction) != "" {
				parsed, err := core.ParseConversionDirection(direction)
				if err != nil {
					return err
				}
				filter.Direction = parsed
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				page, err := rt.coordinator.Conversions(ctx, filter)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CREATED\tDIRECTION\tACCOUNT\tSOURCE\tDERIVATIVE\tRESIDUE")
				for _, item := range page.Items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						item.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
						item.Direction,
						item.Account.Hex(),
						opts.formatSource(rt, item.SourceAmount),
						opts.formatDerivative(rt, item.DerivativeAmount),
						opts.formatSource(rt, item.Residue),
					)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(page.Items), page.Total)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only conversions of this account")
	cmd.Flags().StringVar(&direction, "direction", "", "only wrap or unwrap conversions")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func printReport(cmd *cobra.Command, opts *rootOptions, rt *runtime, report core.CustodyReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "custodian:  %s\n", report.Custodian.Hex())
	fmt.Fprintf(out, "custody:    %s\n", opts.formatSource(rt, report.CustodyBalance))
	fmt.Fprintf(out, "supply:     %s\n", opts.formatDerivative(rt, report.DerivativeSupply))
	fmt.Fprintf(out, "backing:    %s\n", opts.formatSource(rt, report.Backing))
	fmt.Fprintf(out, "residue:    %s\n", opts.formatSource(rt, report.Residue))
	fmt.Fprintf(out, "healthy:    %t\n", report.Healthy)
}
