package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the canvass client.
// It registers the account and survey command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "canvass",
		Short: "Canvass client commands",
	}
	root.AddCommand(NewAccountCommand(baseURL))
	root.AddCommand(NewSurveyCommand(baseURL))
	return root
}
