package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-custody/core"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	driver     string
	dsn        string
	configPath string
	owner      string
	custodian  string
	caller     string
	raw        bool
	logLevel   string
	debugSQL   bool
	cacheTTL   time.Duration

	stderr io.Writer
}

func (o *rootOptions) logOutput() io.Writer {
	if o.stderr == nil {
		return os.Stderr
	}
	return o.stderr
}

func (o *rootOptions) callerAddress() (common.Address, error) {
	if strings.TrimSpace(o.caller) == "" {
		return common.Address{}, fmt.Errorf("custodyctl: --caller is required")
	}
	return core.ParseAddress(o.caller)
}

// parseSource reads a source amount as whole units unless --raw is set.
func (o *rootOptions) parseSource(rt *runtime, value string) (*uint256.Int, error) {
	if o.raw {
		return core.ParseBaseUnits(value)
	}
	return rt.coordinator.Converter().ParseSource(value)
}

func (o *rootOptions) parseDerivative(rt *runtime, value string) (uint64, error) {
	if o.raw {
		parsed, err := core.ParseBaseUnits(value)
		if err != nil {
			return 0, err
		}
		if !parsed.IsUint64() {
			return 0, fmt.Errorf("%w: %q exceeds derivative range", core.ErrInvalidAmount, value)
		}
		return parsed.Uint64(), nil
	}
	return rt.coordinator.Converter().ParseDerivative(value)
}

func (o *rootOptions) formatSource(rt *runtime, amount *uint256.Int) string {
	if o.raw {
		if amount == nil {
			return "0"
		}
		return amount.Dec()
	}
	return rt.coordinator.Converter().FormatSource(amount)
}

func (o *rootOptions) formatDerivative(rt *runtime, amount uint64) string {
	if o.raw {
		return fmt.Sprintf("%d", amount)
	}
	return rt.coordinator.Converter().FormatDerivative(amount)
}

// withRuntime opens the database for the duration of fn.
func withRuntime(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}
	root := &cobra.Command{
		Use:           "custodyctl",
		Short:         "Wrap and unwrap source units against a SQL custody ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", "sqlite3", "database driver (sqlite3 or postgres)")
	flags.StringVar(&opts.dsn, "dsn", "", "database connection string")
	flags.StringVar(&opts.configPath, "config", "", "YAML or JSON custody config file")
	flags.StringVar(&opts.owner, "owner", "", "owner address used when bootstrapping")
	flags.StringVar(&opts.custodian, "custodian", "", "custodian address holding source units")
	flags.StringVar(&opts.caller, "caller", "", "address the operation is performed as")
	flags.BoolVar(&opts.raw, "raw", false, "read and print amounts in base units")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.debugSQL, "debug-sql", false, "log SQL statements")
	flags.DurationVar(&opts.cacheTTL, "config-cache-ttl", 0, "cache the custody configuration for this long")

	root.AddCommand(
		initCmd(opts),
		fundCmd(opts),
		approveCmd(opts),
		wrapCmd(opts),
		unwrapCmd(opts),
		setStateCmd(opts),
		balanceCmd(opts),
		infoCmd(opts),
		reportCmd(opts),
		auditCmd(opts),
		historyCmd(opts),
	)
	return root
}

func Execute() error {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
