// Package cli implements the hoarder command line client.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hoarder/internal/client"
	"github.com/MrSnakeDoc/hoarder/internal/config"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
)

// errReported is returned by commands that already printed their failures.
// It only sets the exit code.
var errReported = errors.New("some operations failed")

// Streams are the terminal handles a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	apiKey     string
	serverAddr string
	configPath string
	debug      bool
}

// env carries what a command needs once flags are parsed.
type env struct {
	streams Streams
	flags   *globalFlags
	out     *printer
	log     logger.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(streams Streams) *cobra.Command {
	e := &env{streams: streams, flags: &globalFlags{}, out: newPrinter(streams.Out, streams.Err)}

	root := &cobra.Command{
		Use:   "hoarder",
		Short: "Save and manage bookmarks from the terminal",
		Long: dedent.Dedent(`
			hoarder talks to a bookmark service: it saves links and notes, lists
			them, updates or deletes them, and shows the tags and lists they are
			organised in.

			The API key and server address come from the flags, then the
			HOARDER_API_KEY and HOARDER_SERVER_ADDR environment variables, then
			the config file.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "error"
			if e.flags.debug {
				level = "debug"
			}
			e.log = logger.New(level, true)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.apiKey, "api-key", "", "API key of the bookmark service")
	pf.StringVar(&e.flags.serverAddr, "server-addr", "", "address of the bookmark service (default "+config.DefaultServerAddr+")")
	pf.StringVarP(&e.flags.configPath, "config", "c", "", "path to the config file (default $XDG_CONFIG_HOME/hoarder/config.yaml)")
	pf.BoolVar(&e.flags.debug, "debug", false, "log API calls to stderr")

	root.AddCommand(
		newBookmarksCmd(e),
		newTagsCmd(e),
		newListsCmd(e),
		newVersionCmd(e),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, streams Streams) int {
	root := NewRootCmd(streams)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			newPrinter(streams.Out, streams.Err).Error(err)
		}
		return 1
	}
	return 0
}

// Main is what cmd/hoarder runs.
func Main() int {
	return Execute(context.Background(), os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// client resolves the configuration and builds an API client. Precedence is
// flag, then environment, then config file, then default.
func (e *env) client(cmd *cobra.Command) (*client.Client, error) {
	path := e.flags.configPath
	optional := false
	if path == "" {
		p, err := config.DefaultClientConfigPath()
		if err != nil {
			return nil, err
		}
		path, optional = p, true
	}

	cfg, err := config.LoadClient(path, optional)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = e.flags.apiKey
	}
	if cmd.Flags().Changed("server-addr") {
		cfg.ServerAddr = e.flags.serverAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return client.New(cfg.ServerAddr, cfg.APIKey,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(e.logger()))
}
