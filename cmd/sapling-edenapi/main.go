// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bayarmunkh/sapling/lib/version"
)

const defaultServiceURL = "http://127.0.0.1:8040"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := a.root(ctx).execute(os.Args[1:], a.stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the process streams so commands can be driven from tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (a *app) root(ctx context.Context) *command {
	return &command{
		name:    "sapling-edenapi",
		summary: "Query and upload to a Sapling EdenAPI service",
		description: `sapling-edenapi is a command-line client for the EdenAPI batch service.

Every query command sends one batch request and prints results as the
service streams them. Results arrive in completion order, not request
order. The connection flags default to $SAPLING_EDENAPI_URL and
$SAPLING_REPO when set.`,
		subcommands: []*command{
			a.locationToHashCommand(ctx),
			a.revlogDataCommand(ctx),
			a.filesCommand(ctx),
			a.uploadCommand(ctx),
			a.diagCommand(),
			a.versionCommand(),
		},
	}
}

// connection holds the flags shared by every command that talks to
// the service.
type connection struct {
	url        string
	repo       string
	timeout    time.Duration
	noCompress bool
}

func (c *connection) register(flagSet *pflag.FlagSet) {
	serviceURL := os.Getenv("SAPLING_EDENAPI_URL")
	if serviceURL == "" {
		serviceURL = defaultServiceURL
	}
	flagSet.StringVar(&c.url, "url", serviceURL, "base URL of the EdenAPI service")
	flagSet.StringVarP(&c.repo, "repo", "R", os.Getenv("SAPLING_REPO"), "repository name")
	flagSet.DurationVar(&c.timeout, "timeout", 5*time.Minute, "deadline for the whole request")
	flagSet.BoolVar(&c.noCompress, "no-compress", false, "do not ask for zstd-compressed responses")
}

// open validates the connection flags and returns a client and a
// context bounded by --timeout.
func (a *app) open(ctx context.Context, conn *connection) (*client, context.Context, context.CancelFunc, error) {
	if conn.repo == "" {
		return nil, nil, nil, fmt.Errorf("--repo is required")
	}
	if conn.url == "" {
		return nil, nil, nil, fmt.Errorf("--url is required")
	}
	c := &client{
		baseURL:    conn.url,
		repo:       conn.repo,
		httpClient: &http.Client{},
		compress:   !conn.noCompress,
	}
	if conn.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, conn.timeout)
		return c, ctx, cancel, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	return c, ctx, cancel, nil
}

func (a *app) versionCommand() *command {
	return &command{
		name:    "version",
		summary: "Print the client version",
		run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("version takes no arguments")
			}
			_, err := fmt.Fprintln(a.stdout, version.Full())
			return err
		},
	}
}
