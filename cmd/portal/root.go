package main

import (
	"fmt"
	"path/filepath"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/simhq/go-portal-client/internal/config"
	"github.com/simhq/go-portal-client/routeguard"
	"github.com/simhq/go-portal-client/session"
	"github.com/simhq/go-portal-client/session/credstore"
)

// app wires the client stack once and hands it to the commands.
type app struct {
	cfg    config.Config
	client *session.Client
	guard  *routeguard.Guard
}

func newApp(cfg config.Config) (*app, error) {
	creds, err := credstore.NewFileRepo(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	client, err := session.New(cfg.BaseURL, creds,
		session.WithTimeout(cfg.RequestTimeout),
		session.WithCSRFCookieName(cfg.CSRFCookieName),
		session.WithCookieFile(filepath.Join(cfg.DataDir, "cookies.json")),
	)
	if err != nil {
		return nil, err
	}

	guard, err := routeguard.New(client, routeguard.DefaultRoutes())
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, client: client, guard: guard}, nil
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "portal",
		Short: "Membership portal client",
		Long:  "Command line client for the membership portal: login, membership verification, password resets, and member services.",
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppName(a.cfg.AppName)
			return cmd.Help()
		},
	}

	root.AddCommand(
		a.loginCommand(),
		a.codeCheckCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.verifyMemberCommand(),
		a.resetCommand(),
		a.chaptersCommand(),
		a.visitCommand(),
	)
	return root
}

func displayAppName(appName string) {
	banner := figure.NewFigure(appName, "cybermedium", true)
	banner.Print()
	fmt.Println()
}
