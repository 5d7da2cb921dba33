package main

import (
	"fmt"

	"github.com/simhq/go-portal-client/routeguard"
	"github.com/spf13/cobra"
)

func (a *app) chaptersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters",
		Short: "List the chapter roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, err := a.client.Chapters(cmd.Context())
			if err != nil {
				return err
			}
			for _, chapter := range chapters {
				fmt.Printf("%-8s %s\n", chapter.ID, chapter.Title)
			}
			return nil
		},
	}
}

func (a *app) visitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "visit <route>",
		Short: "Run the route guard against a named page",
		Long:  "Evaluates the access rules for a page (home, account, conventions, expense-reports, address-list, recruiters, ...) and reports where the navigation would land.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision, err := a.guard.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch decision.Outcome {
			case routeguard.OutcomeAllow:
				fmt.Printf("allowed: %s\n", args[0])
			case routeguard.OutcomeRedirectHome:
				fmt.Printf("redirected to %s?error=%s\n", decision.Target, decision.ErrorParam)
			default:
				fmt.Printf("redirected to %s\n", decision.Target)
			}
			if message := a.client.ServerMessage(); message != "" {
				fmt.Println(message)
			}
			return nil
		},
	}
}
