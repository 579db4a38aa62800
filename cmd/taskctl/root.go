package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/taskboard/internal/board"
	"github.com/phrazzld/taskboard/internal/client"
	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix is prepended to environment overrides, e.g. TASKCTL_SERVER.
const envPrefix = "TASKCTL"

const defaultServer = "http://localhost:8080/api"

// Settings persisted in the config file.
const (
	keyServer       = "server"
	keyToken        = "token"
	keyRefreshToken = "refresh_token"
)

// cliApp carries the state shared by every command of one invocation.
type cliApp struct {
	v          *viper.Viper
	configPath string
	verbose    bool
	out        io.Writer
	logger     *slog.Logger
}

func execute(version string, args []string) error {
	root := newRootCmd(os.Stdout)
	root.Version = version
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	app := &cliApp{v: viper.New(), out: out}

	rootCmd := &cobra.Command{
		Use:   "taskctl",
		Short: "Manage a task board from the terminal",
		Long: `taskctl talks to a task board server. Log in once with "taskctl login";
the token is stored in the config file and reused by every other command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/taskctl/config.yaml)")
	flags.String(keyServer, defaultServer, "Base URL of the task board API")
	flags.String(keyToken, "", "Bearer token (overrides the stored one)")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "Log requests to stderr")
	_ = app.v.BindPFlag(keyServer, flags.Lookup(keyServer))
	_ = app.v.BindPFlag(keyToken, flags.Lookup(keyToken))

	rootCmd.AddCommand(
		app.loginCmd(),
		app.registerCmd(),
		app.logoutCmd(),
		app.boardCmd(),
		app.addCmd(),
		app.editCmd(),
		app.moveCmd(),
		app.rmCmd(),
		app.normalizeCmd(),
	)
	return rootCmd
}

// setup loads the config file and environment, then configures logging.
func (a *cliApp) setup(cmd *cobra.Command, _ []string) error {
	level := "warn"
	if a.verbose {
		level = "debug"
	}
	log, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: level}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = log

	if a.configPath == "" {
		a.configPath, err = defaultConfigPath()
		if err != nil {
			return err
		}
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	a.v.SetConfigFile(a.configPath)
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "taskctl", "config.yaml"), nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// saveSession writes the server URL and tokens to the config file. Only
// persisted keys are written, so flag and environment overrides that were
// not part of the session do not leak into the file.
func (a *cliApp) saveSession(server string, auth *client.AuthResponse) error {
	file := viper.New()
	file.SetConfigFile(a.configPath)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	file.Set(keyServer, server)
	if auth != nil {
		file.Set(keyToken, auth.AccessToken)
		file.Set(keyRefreshToken, auth.RefreshToken)
	} else {
		file.Set(keyToken, "")
		file.Set(keyRefreshToken, "")
	}

	if err := os.MkdirAll(filepath.Dir(a.configPath), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := file.WriteConfigAs(a.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(a.configPath, 0o600)
}

func (a *cliApp) server() string {
	return a.v.GetString(keyServer)
}

// newClient builds an API client. Commands that need a session fail early
// with a hint when no token is configured.
func (a *cliApp) newClient(requireToken bool) (*client.Client, error) {
	token := a.v.GetString(keyToken)
	if requireToken && token == "" {
		return nil, errors.New(`not logged in: run "taskctl login" or set TASKCTL_TOKEN`)
	}
	return client.New(a.server(), client.WithToken(token), client.WithLogger(a.logger))
}

// openBoard fetches the caller's tasks into a fresh board.
func (a *cliApp) openBoard(ctx context.Context) (*board.Board, error) {
	c, err := a.newClient(true)
	if err != nil {
		return nil, err
	}
	b, err := board.New(c, board.NewCache(nil), a.logger)
	if err != nil {
		return nil, err
	}
	if err := b.Refresh(ctx); err != nil {
		return nil, explain(err)
	}
	return b, nil
}

// explain adds a next step to errors the user can act on.
func explain(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf(`%w (run "taskctl login" again)`, err)
	}
	return err
}
