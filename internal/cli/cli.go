// Package cli turns command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vk/flowrungo/internal/app"
)

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments, layering flags over an optional
// YAML config file. It returns the validated config, a boolean indicating a
// clean early exit (help, no arguments), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("flowrun", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
flowrun - ordered-flow batch execution against a remote job service.

Jobs are declared in HCL files, grouped into flows by their flow id. Flows
run strictly one after another; within a flow at most -max-concurrency jobs
are outstanding at once.

Usage:
  flowrun [options] [JOBS_PATH]

Arguments:
  JOBS_PATH
    Path to a single .hcl job-table file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	jobsFlag := flagSet.String("jobs", "", "Path to the job-table file or directory.")
	jFlag := flagSet.String("j", "", "Path to the job-table file or directory (shorthand).")
	configFlag := flagSet.String("config", "", "Path to a YAML config file. Flags override its values.")
	baseURLFlag := flagSet.String("base-url", "", "Base URL of the job-execution service.")
	tokenFlag := flagSet.String("token", "", "Bearer token for the job-execution service.")
	maxConcurrencyFlag := flagSet.Int("max-concurrency", 0, "Per-flow dispatch ceiling. Default 8.")
	pollIntervalFlag := flagSet.Duration("poll-interval", 0, "Completion polling interval. Default 2s.")
	waitTimeoutFlag := flagSet.Duration("wait-timeout", 0, "Bound on a single wait for completions. 0 waits forever.")
	outFlag := flagSet.String("out", "", "Output file for the result table. Default flowrun-results.csv.")
	outFormatFlag := flagSet.String("out-format", "", "Output format: 'csv' or 'json'. Default inferred from -out.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	// Start from the config file, when one was given.
	var base app.Config
	if *configFlag != "" {
		fileCfg, err := app.LoadConfigFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		base = fileCfg
	}

	jobsPath := base.JobsPath
	if *jobsFlag != "" {
		jobsPath = *jobsFlag
	} else if *jFlag != "" {
		jobsPath = *jFlag
	} else if flagSet.NArg() > 0 {
		jobsPath = flagSet.Arg(0)
	}

	if jobsPath == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	merged := app.Config{
		JobsPath:       jobsPath,
		BaseURL:        override(base.BaseURL, *baseURLFlag),
		Token:          override(base.Token, *tokenFlag),
		MaxConcurrency: overrideInt(base.MaxConcurrency, *maxConcurrencyFlag),
		PollInterval:   overrideDuration(base.PollInterval, *pollIntervalFlag),
		WaitTimeout:    overrideDuration(base.WaitTimeout, *waitTimeoutFlag),
		OutputPath:     override(base.OutputPath, *outFlag),
		OutputFormat:   override(base.OutputFormat, *outFormatFlag),
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		StatusPort:     overrideInt(base.StatusPort, *statusPortFlag),
	}

	config, err := app.NewConfig(merged)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

// override prefers the flag value when it was set.
func override(fileVal, flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return fileVal
}

func overrideInt(fileVal, flagVal int) int {
	if flagVal != 0 {
		return flagVal
	}
	return fileVal
}

func overrideDuration(fileVal, flagVal time.Duration) time.Duration {
	if flagVal != 0 {
		return flagVal
	}
	return fileVal
}
