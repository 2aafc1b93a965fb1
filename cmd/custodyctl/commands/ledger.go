package commands

import (
	"context"
	"fmt"

	gocmd "github.com/goliatone/go-command"
	custody "github.com/goliatone/go-custody"
	custodycommand "github.com/goliatone/go-custody/command"
	"github.com/goliatone/go-custody/core"
	"github.com/spf13/cobra"
)

func initCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Apply migrations and bootstrap the custody configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				cfg, err := rt.coordinator.Configuration(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "owner:       %s\n", cfg.Owner.Hex())
				fmt.Fprintf(out, "custodian:   %s\n", cfg.Custodian.Hex())
				fmt.Fprintf(out, "source:      %s\n", cfg.SourceAsset.Hex())
				fmt.Fprintf(out, "wrap:        %t\n", cfg.WrapEnabled)
				fmt.Fprintf(out, "unwrap:      %t\n", cfg.UnwrapEnabled)
				return nil
			})
		},
	}
}

func fundCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fund <account> <amount>",
		Short: "Credit source units to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				account, err := core.ParseAddress(args[0])
				if err != nil {
					return err
				}
				amount, err := opts.parseSource(rt, args[1])
				if err != nil {
					return err
				}
				if err := rt.factory.SourceAdmin().FundSource(ctx, account, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "funded %s with %s\n", account.Hex(), opts.formatSource(rt, amount))
				return nil
			})
		},
	}
}

func approveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <amount>",
		Short: "Set the custodian's allowance over the caller's source units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				caller, err := opts.callerAddress()
				if err != nil {
					return err
				}
				amount, err := opts.parseSource(rt, args[0])
				if err != nil {
					return err
				}
				custodian := rt.coordinator.Custodian()
				if err := rt.factory.SourceAdmin().Approve(ctx, caller, custodian, amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "approved %s for %s\n", custodian.Hex(), opts.formatSource(rt, amount))
				return nil
			})
		},
	}
}

func wrapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wrap <amount>",
		Short: "Move source units into custody and receive derivative units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				caller, err := opts.callerAddress()
				if err != nil {
					return err
				}
				amount, err := opts.parseSource(rt, args[0])
				if err != nil {
					return err
				}
				facade, err := custody.NewFacade(rt.coordinator)
				if err != nil {
					return err
				}
				collector := gocmd.NewResult[core.Conversion]()
				err = facade.Commands().Wrap.Execute(gocmd.ContextWithResult(ctx, collector), custodycommand.WrapMessage{
					Request: core.WrapRequest{Caller: caller, Amount: amount},
				})
				if err != nil {
					return err
				}
				conversion, _ := collector.Load()
				printConversion(cmd, opts, rt, conversion)
				return nil
			})
		},
	}
}

func unwrapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unwrap <amount>",
		Short: "Burn derivative units and release source units from custody",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				caller, err := opts.callerAddress()
				if err != nil {
					return err
				}
				amount, err := opts.parseDerivative(rt, args[0])
				if err != nil {
					return err
				}
				facade, err := custody.NewFacade(rt.coordinator)
				if err != nil {
					return err
				}
				collector := gocmd.NewResult[core.Conversion]()
				err = facade.Commands().Unwrap.Execute(gocmd.ContextWithResult(ctx, collector), custodycommand.UnwrapMessage{
					Request: core.UnwrapRequest{Caller: caller, Amount: amount},
				})
				if err != nil {
					return err
				}
				conversion, _ := collector.Load()
				printConversion(cmd, opts, rt, conversion)
				return nil
			})
		},
	}
}

func setStateCmd(opts *rootOptions) *cobra.Command {
	var wrapEnabled, unwrapEnabled bool
	cmd := &cobra.Command{
		Use:   "set-state",
		Short: "Overwrite both enabled flags (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *runtime) error {
				caller, err := opts.callerAddress()
				if err != nil {
					return err
				}
				facade, err := custody.NewFacade(rt.coordinator)
				if err != nil {
					return err
				}
				collector := gocmd.NewResult[core.Configuration]()
				err = facade.Commands().SetEnabledState.Execute(gocmd.ContextWithResult(ctx, collector), custodycommand.SetEnabledStateMessage{
					Request: core.SetEnabledStateRequest{
						Caller:        caller,
						WrapEnabled:   wrapEnabled,
						UnwrapEnabled: unwrapEnabled,
					},
				})
				if err != nil {
					return err
				}
				cfg, _ := collector.Load()
				fmt.Fprintf(cmd.OutOrStdout(), "wrap: %t unwrap: %t\n", cfg.WrapEnabled, cfg.UnwrapEnabled)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&wrapEnabled, "wrap", false, "allow wrapping")
	cmd.Flags().BoolVar(&unwrapEnabled, "unwrap", false, "allow unwrapping")
	_ = cmd.MarkFlagRequired("wrap")
	_ = cmd.MarkFlagRequired("unwrap")
	return cmd
}

func printConversion(cmd *cobra.Command, opts *rootOptions, rt *runtime, conversion core.Conversion) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", conversion.Direction, conversion.ID)
	fmt.Fprintf(out, "  source:     %s\n", opts.formatSource(rt, conversion.SourceAmount))
	fmt.Fprintf(out, "  derivative: %s\n", opts.formatDerivative(rt, conversion.DerivativeAmount))
	if conversion.Residue != nil && !conversion.Residue.IsZero() {
		fmt.Fprintf(out, "  residue:    %s\n", opts.formatSource(rt, conversion.Residue))
	}
}
