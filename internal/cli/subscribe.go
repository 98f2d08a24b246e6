package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dailymemedigest/memefactory/pkg/subscribe"
)

// subscribeCommand creates the subscribe command.
func (c *CLI) subscribeCommand() *cobra.Command {
	var (
		prefs  map[string]string
		status bool
	)

	cmd := &cobra.Command{
		Use:   "subscribe [email]",
		Short: "Add an address to the newsletter or check the Mailchimp setup",
		Long: `Add an address to the newsletter list as a pending member. Mailchimp sends
the confirmation mail. With --pref the member's preferences are updated
instead. With --status the Mailchimp configuration is checked.`,
		Example: `  memefactory subscribe jane@example.com
  memefactory subscribe jane@example.com --pref WEEKLY=true
  memefactory subscribe --status`,
		Args: func(cmd *cobra.Command, args []string) error {
			if status {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			svc := subscribe.New(subscribe.Settings{
				APIKey:       cfg.Mailchimp.APIKey,
				ServerPrefix: cfg.Mailchimp.ServerPrefix,
				ListID:       cfg.Mailchimp.ListID,
			}, subscribe.WithLogger(c.Logger))

			if status {
				printMailchimpStatus(svc.Status(cmd.Context()))
				return nil
			}
			parsed, err := parsePrefs(prefs)
			if err != nil {
				return err
			}
			return runSubscribe(cmd.Context(), svc, args[0], parsed)
		},
	}

	cmd.Flags().StringToStringVarP(&prefs, "pref", "p", nil, "preference to store as KEY=true|false (repeatable)")
	cmd.Flags().BoolVar(&status, "status", false, "check the Mailchimp configuration")

	return cmd
}

func runSubscribe(ctx context.Context, svc *subscribe.Service, email string, prefs map[string]bool) error {
	loggerFromContext(ctx).Debug("newsletter request", "email", email, "preferences", len(prefs), "configured", svc.Configured())

	spinner := newSpinnerWithContext(ctx, "Contacting Mailchimp...")
	spinner.Start()

	var (
		res subscribe.Result
		err error
	)
	if len(prefs) > 0 {
		res, err = svc.UpdatePreferences(ctx, email, prefs)
	} else {
		res, err = svc.Subscribe(ctx, email)
	}
	if err != nil {
		spinner.StopWithError("Request failed")
		return err
	}
	spinner.Stop()

	if res.Simulated {
		printWarning("%s", res.Message)
		printDetail("Set MAILCHIMP_API_KEY, MAILCHIMP_SERVER_PREFIX and MAILCHIMP_LIST_ID to subscribe for real")
		return nil
	}
	printSuccess("%s", res.Message)
	return nil
}

// parsePrefs reads KEY=true|false pairs.
func parsePrefs(raw map[string]string) (map[string]bool, error) {
	out := make(map[string]bool, len(raw))
	for k, v := range raw {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("preference %s: want true or false, got %q", k, v)
		}
		out[k] = b
	}
	return out, nil
}

func printMailchimpStatus(st subscribe.Status) {
	printKeyValue("Configured", yesNo(st.Configured))
	printKeyValue("API key", yesNo(st.APIKeySet))
	printKeyValue("Server", valueOr(st.ServerPrefix, "not set"))
	printKeyValue("List", valueOr(st.ListID, "not set"))
	printKeyValue("Connection", st.ConnectionTest)
}

func yesNo(b bool) string {
	if b {
		return StyleSuccess.Render("yes")
	}
	return StyleWarning.Render("no")
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return StyleDim.Render(fallback)
	}
	return *s
}
