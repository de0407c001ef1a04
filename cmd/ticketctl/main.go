// ticketctl is a terminal front end for the ticket desk. Each invocation
// restores the persisted session, runs one command and prints JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/app"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/observability"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	driver    string
	namespace string
	dataDir   string
	logLevel  string
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var flags globalFlags
	flagSet := pflag.NewFlagSet("ticketctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&flags.driver, "driver", "", "storage driver: memory, file, redis, postgres, sqlite")
	flagSet.StringVar(&flags.namespace, "namespace", "", "storage key namespace")
	flagSet.StringVar(&flags.dataDir, "data-dir", "", "directory for the file driver")
	flagSet.StringVar(&flags.logLevel, "log-level", "warn", "log level")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		return usageError("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stdout, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stdout, flagSet)
		return usageError("command required")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return usageError("unknown command %q", rest[0])
	}

	cfg, err := loadConfig(flagSet, flags)
	if err != nil {
		return usageError("%v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := cmd.run(ctx, a, rest[1:])
	if err != nil {
		logger.Debug("command failed", zap.String("command", rest[0]), zap.Error(err))
		return err
	}
	return writeJSON(stdout, result)
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(flagSet *pflag.FlagSet, flags globalFlags) (*config.Config, error) {
	if _, set := os.LookupEnv("LOG_LEVEL"); !set || flagSet.Changed("log-level") {
		if err := os.Setenv("LOG_LEVEL", flags.logLevel); err != nil {
			return nil, err
		}
	}
	overrides := map[string]string{
		"driver":    "STORE_DRIVER",
		"namespace": "STORE_NAMESPACE",
		"data-dir":  "STORE_FILE_DIR",
	}
	values := map[string]string{
		"driver":    flags.driver,
		"namespace": flags.namespace,
		"data-dir":  flags.dataDir,
	}
	for name, envKey := range overrides {
		if flagSet.Changed(name) {
			if err := os.Setenv(envKey, values[name]); err != nil {
				return nil, err
			}
		}
	}
	return config.Load()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(w io.Writer, err error) {
	domainErr := apperrors.ToDomainError(err)
	message := domainErr.Message
	if domainErr.Code == apperrors.CodeInternal && domainErr.Err != nil {
		message = domainErr.Err.Error()
	}
	fmt.Fprintf(w, "error: %s: %s\n", domainErr.Code, message)
}

func usageError(format string, args ...any) error {
	return apperrors.NewValidationError(fmt.Sprintf(format, args...), nil)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `ticketctl manages support tickets for the logged-in user.

Usage:
  ticketctl [flags] <command> [args]

Commands:
  signup <username> <password>   create an account and log in
  login <username> <password>    log in
  logout                         end the session
  whoami                         show the current session
  list [--status s] [--priority p]
  create --title t [--description d] [--status s] [--priority p]
  update <id> [--title t] [--description d] [--status s] [--priority p]
  delete <id>
  stats                          ticket counts by status
  health                         check the storage backend

Flags:
%s`, flagSet.FlagUsages())
}
