// Command oapi-mockgen generates Python serverless handlers that mock an
// OpenAPI document with a language model, together with the deployment
// manifest that routes each operation to its handler.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oapi-codegen/oapi-mockgen/experimental/mockgen"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors caused by the invocation rather than the input
// document. They exit with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "oapi-mockgen: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oapi-mockgen [flags] <openapi.yaml>",
		Short: "Generate language-model backed Python mock handlers from an OpenAPI document",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return &usageError{fmt.Errorf("expected one OpenAPI document, got %d arguments", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})
	addFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd.Flags(), args)
		if err != nil {
			return &usageError{err}
		}

		logger := newLogger(opts.verbose, cmd.ErrOrStderr())
		defer func() { _ = logger.Sync() }()

		gen, err := mockgen.NewGenerator(opts.cfg, mockgen.WithLogger(logger))
		if err != nil {
			return &usageError{err}
		}
		result, err := gen.Generate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.StubPath)
		return nil
	}
	return cmd
}

// newLogger writes human-readable logs to w. Warnings about skipped
// operations are always shown; --verbose adds debug output.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
