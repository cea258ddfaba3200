// Command ruwuma inspects the endpoint catalogue: it lists endpoints,
// resolves their paths for a set of protocol versions, builds request URLs
// and sends requests to a homeserver.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/alecthomas/kong"

	"github.com/tirr-c/ruwuma"
	"github.com/tirr-c/ruwuma/client"
	"github.com/tirr-c/ruwuma/internal/config"
)

type CLI struct {
	Config     string   `help:"YAML file with defaults (default: $RUWUMA_CONFIG)." type:"path" short:"c"`
	Homeserver string   `help:"Homeserver base URL." short:"H"`
	Token      string   `help:"Access token sent to endpoints that take one."`
	Versions   []string `help:"Supported versions, e.g. v1.1,r0.6.1." sep:","`
	Unstable   bool     `help:"Allow unstable paths."`
	Verbose    bool     `help:"Log debug output to stderr." short:"v"`

	Version   VersionCmd   `cmd:"" help:"Print version information."`
	Endpoints EndpointsCmd `cmd:"" help:"List known endpoints."`
	History   HistoryCmd   `cmd:"" help:"Print the path history of an endpoint."`
	Resolve   ResolveCmd   `cmd:"" help:"Resolve the path an endpoint uses for the supported versions."`
	URL       URLCmd       `cmd:"" name:"url" help:"Build the request for an endpoint without sending it."`
	Call      CallCmd      `cmd:"" help:"Send a request to the homeserver and print the response body."`
	Discover  DiscoverCmd  `cmd:"" help:"Ask the homeserver which versions it supports."`
}

// env is what commands run with: the merged flags and config file.
type env struct {
	out       io.Writer
	logger    *slog.Logger
	cfg       *config.Config
	supported ruwuma.SupportedVersions
}

func (c *CLI) env(stdout, stderr io.Writer) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.Config != "" {
		cfg, err = config.LoadFile(c.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if c.Homeserver != "" {
		cfg.Homeserver = c.Homeserver
	}
	if c.Token != "" {
		cfg.AccessToken = c.Token
	}
	if len(c.Versions) > 0 {
		cfg.Versions = c.Versions
	}
	if c.Unstable {
		cfg.AllowUnstable = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	supported, err := cfg.Supported()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	return &env{
		out:       stdout,
		logger:    slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		cfg:       cfg,
		supported: supported,
	}, nil
}

func (e *env) client() (*client.Client, error) {
	c, err := client.New(e.cfg.Homeserver)
	if err != nil {
		return nil, err
	}
	return c.WithHTTPClient(&http.Client{Timeout: e.cfg.Timeout}).
		WithCredential(e.cfg.Credential()).
		WithSupportedVersions(e.supported).
		WithLogger(e.logger), nil
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("ruwuma"),
		kong.Description("Inspect and exercise versioned Matrix client-server endpoints."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
}

func run(args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := newParser(cli, stdout, stderr)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	e, err := cli.env(stdout, stderr)
	if err != nil {
		return err
	}
	return ctx.Run(e)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "ruwuma:", err)
		os.Exit(1)
	}
}
