package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/prompt"
)

const (
	appName   = "formflow"
	envPrefix = "FORMFLOW"
)

// app carries the state shared by every command: the viper instance the
// flags are bound to, the logger built before a command runs and the IO
// streams commands write to.
type app struct {
	v         *viper.Viper
	logger    *zap.Logger
	closeLog  func()
	stdout    io.Writer
	stderr    io.Writer
	configDir string
	driver    prompt.Driver
}

func newApp() *app {
	return &app{
		v:         viper.New(),
		logger:    zap.NewNop(),
		closeLog:  func() {},
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		configDir: filepath.Join(xdg.ConfigHome, appName),
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "formflow - declarative multi-section forms",
		Long: `formflow loads a JSON or YAML form document and walks it section by
section: fields are validated as they are answered, conditional fields are
shown when their conditions hold and remote option lists are fetched on demand.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.closeLog()
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default $XDG_CONFIG_HOME/formflow/config.yaml)")
	flags.StringP("form", "f", "", "path to the form document (JSON or YAML)")
	flags.String("openapi", "", "OpenAPI document used to bind sources declared by operationId")
	flags.String("base-url", "", "base URL for relative option source URLs")
	flags.Duration("timeout", 15*time.Second, "timeout for remote option requests")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "log file (default $XDG_STATE_HOME/formflow/formflow.log, - for stderr)")

	for _, key := range []string{"config", "form", "openapi", "base-url", "timeout", "log-level", "log-file"} {
		_ = a.v.BindPFlag(key, flags.Lookup(key))
	}

	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newOptionsCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// setup reads the optional config file, applies FORMFLOW_* environment
// overrides and builds the logger.
func (a *app) setup() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(a.configDir)
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logFile := a.v.GetString("log-file")
	if logFile == "" {
		logFile = filepath.Join(xdg.StateHome, appName, appName+".log")
	}
	logger, closeLog, err := newLogger(a.v.GetString("log-level"), logFile, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *app) formPath() (string, error) {
	path := strings.TrimSpace(a.v.GetString("form"))
	if path == "" {
		return "", errors.New("a form document is required (--form or FORMFLOW_FORM)")
	}
	return path, nil
}
