package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewSurveyCommand constructs the `survey` command group and subcommands.
func NewSurveyCommand(baseURL BaseURLFunc) *cobra.Command {
	surveyCmd := &cobra.Command{Use: "survey", Short: "Survey operations"}
	surveyCmd.AddCommand(
		newSurveyListCommand(baseURL),
		newSurveyCreateCommand(baseURL),
		newSurveyVoteCommand(baseURL),
		newSurveyShowCommand(baseURL),
		newSurveyWatchCommand(baseURL),
	)
	return surveyCmd
}

type surveyView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	CreatedBy string   `json:"createdBy"`
	Location  string   `json:"location"`
	DueDate   string   `json:"dueDate"`
	Closed    bool     `json:"closed"`
	Options   []string `json:"options"`
}

func newSurveyListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List surveys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, err := loadIdentity(cmd)
			if err != nil {
				return err
			}
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodGet, "/v1/surveys",
				ident, []byte(ident.clientID), nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("list: %s: %s", resp.Status, body)
			}
			var views []surveyView
			if err := json.Unmarshal(body, &views); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, v := range views {
				state := "open"
				if v.Closed {
					state = "closed"
				}
				due := v.DueDate
				if t, err := time.Parse(time.RFC3339, v.DueDate); err == nil {
					due = humanize.Time(t)
				}
				fmt.Fprintf(out, "%s  %-20s by %-12s at %-12s due %s (%s) %v\n",
					v.ID, v.Title, v.CreatedBy, v.Location, due, state, v.Options)
			}
			return nil
		},
	}
	addIdentityFlags(listCmd)
	return listCmd
}

func newSurveyCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a survey and notify live clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, err := loadIdentity(cmd)
			if err != nil {
				return err
			}
			title, _ := cmd.Flags().GetString("title")
			location, _ := cmd.Flags().GetString("location")
			dueRaw, _ := cmd.Flags().GetString("due")
			options, _ := cmd.Flags().GetStringArray("option")
			due, err := parseDue(dueRaw)
			if err != nil {
				return err
			}
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodPost, "/v1/surveys",
				ident, []byte(ident.clientID), map[string]any{
					"title":    title,
					"location": location,
					"dueDate":  due.Format(time.RFC3339),
					"options":  options,
				})
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("create: %s: %s", resp.Status, body)
			}
			printJSON(cmd.OutOrStdout(), body)
			return nil
		},
	}
	addIdentityFlags(createCmd)
	createCmd.Flags().String("title", "", "Survey title")
	createCmd.Flags().String("location", "", "Survey location")
	createCmd.Flags().String("due", "", "Due date: RFC3339 or a duration like 72h")
	createCmd.Flags().StringArray("option", nil, "Option (repeatable)")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("due")
	return createCmd
}

func newSurveyVoteCommand(baseURL BaseURLFunc) *cobra.Command {
	voteCmd := &cobra.Command{
		Use:   "vote",
		Short: "Vote on a survey",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, err := loadIdentity(cmd)
			if err != nil {
				return err
			}
			surveyID, _ := cmd.Flags().GetString("survey")
			option, _ := cmd.Flags().GetString("option")
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodPost, "/v1/vote",
				ident, []byte(option), map[string]string{
					"surveyId":     surveyID,
					"chosenOption": option,
				})
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("vote: %s: %s", resp.Status, body)
			}
			printJSON(cmd.OutOrStdout(), body)
			return nil
		},
	}
	addIdentityFlags(voteCmd)
	voteCmd.Flags().String("survey", "", "Survey id")
	voteCmd.Flags().String("option", "", "Chosen option")
	_ = voteCmd.MarkFlagRequired("survey")
	_ = voteCmd.MarkFlagRequired("option")
	return voteCmd
}

func newSurveyShowCommand(baseURL BaseURLFunc) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a survey's votes (voters only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, err := loadIdentity(cmd)
			if err != nil {
				return err
			}
			surveyID, _ := cmd.Flags().GetString("survey")
			resp, body, err := request(cmd.Context(), baseURL(), http.MethodGet, "/v1/surveys/"+url.PathEscape(surveyID),
				ident, []byte(ident.clientID), nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("show: %s: %s", resp.Status, body)
			}
			printJSON(cmd.OutOrStdout(), body)
			return nil
		},
	}
	addIdentityFlags(showCmd)
	showCmd.Flags().String("survey", "", "Survey id")
	_ = showCmd.MarkFlagRequired("survey")
	return showCmd
}

// newSurveyWatchCommand attaches to the notification stream and prints
// frames until interrupted.
func newSurveyWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream notifications for a client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ident, err := loadIdentity(cmd)
			if err != nil {
				return err
			}
			if ident.clientID == "" {
				return fmt.Errorf("missing --user")
			}
			filter, _ := cmd.Flags().GetString("filter")
			path := "/v1/events/" + url.PathEscape(ident.clientID)
			if filter != "" {
				path += "?filter=" + url.QueryEscape(filter)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL()+path, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("watch: %s", resp.Status)
			}
			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if line := scanner.Text(); line != "" {
					fmt.Fprintln(out, line)
				}
			}
			return scanner.Err()
		},
	}
	addIdentityFlags(watchCmd)
	watchCmd.Flags().String("filter", "", "CEL filter expression for the stream")
	return watchCmd
}
