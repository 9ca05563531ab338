package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sakif/issue-tracker/internal/client"
	"github.com/sakif/issue-tracker/internal/config"
	"github.com/sakif/issue-tracker/internal/issueui"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE once flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfgFile string
	verbose bool

	cfg    *config.ClientConfig
	api    *client.Client
	logger *slog.Logger

	// confirmer is replaced in tests; nil means an interactive huh prompt.
	confirmer issueui.Confirmer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return (&app{out: out, errOut: errOut}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "issuectl",
		Short: "Terminal client for the issue tracker",
		Long: `issuectl lists, edits, assigns and deletes issues on an issue tracker server.

Configuration is read from the environment (ISSUES_SERVER, ISSUES_TOKEN,
ISSUES_TIMEOUT) or from a YAML file passed with --config. ISSUES_TOKEN is the
session token issued at GitHub login (the "token" cookie).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newDeleteCmd(a),
		newAssignCmd(a),
		newEditCmd(a),
		newUsersCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadClient(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.api = client.New(cfg.Server, cfg.Token, cfg.Timeout)

	a.logger.Debug("client configured",
		slog.String("server", cfg.Server),
		slog.Bool("token", cfg.Token != ""),
	)
	return nil
}

func parseIssueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", raw)
	}
	return id, nil
}
