package subscribe

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/integrations"
	"github.com/dailymemedigest/memefactory/pkg/integrations/mailchimp"
)

const simulatedSuffix = " (Mailchimp not configured)"

// Messages returned on success.
const (
	MsgSubscribed        = "Email subscription successful! Please check your email for confirmation."
	MsgAlreadySubscribed = "Email is already subscribed to our newsletter!"
	MsgPreferencesSaved  = "Preferences saved successfully!"
	MsgConfirmed         = "Subscription confirmed successfully!"
)

// Settings are the Mailchimp credentials. All three must be set for the
// service to talk to Mailchimp.
type Settings struct {
	APIKey       string
	ServerPrefix string
	ListID       string
}

// Complete reports whether every setting is present.
func (s Settings) Complete() bool {
	return s.APIKey != "" && s.ServerPrefix != "" && s.ListID != ""
}

// Mailer is the subset of the Mailchimp client the service uses.
type Mailer interface {
	AddMember(ctx context.Context, email, status string, mergeFields map[string]string) (*mailchimp.Member, error)
	UpdateMember(ctx context.Context, email string, mergeFields map[string]string) (*mailchimp.Member, error)
	Ping(ctx context.Context) (*mailchimp.List, error)
}

// Result is a successful call's outcome.
type Result struct {
	Message   string `json:"message"`
	Simulated bool   `json:"-"`
}

// Service subscribes addresses and records their preferences.
type Service struct {
	settings Settings
	client   Mailer
	logger   *log.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseURL points the Mailchimp client at another server.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		if c, ok := s.client.(*mailchimp.Client); ok && u != "" {
			c.WithBaseURL(u)
		}
	}
}

// WithMailer replaces the Mailchimp client. The settings still decide
// whether the service is simulated.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		if m != nil && s.settings.Complete() {
			s.client = m
		}
	}
}

// New returns a Service. Incomplete settings give a simulated service.
func New(settings Settings, opts ...Option) *Service {
	s := &Service{settings: settings, logger: log.Default()}
	if settings.Complete() {
		s.client = mailchimp.NewClient(settings.APIKey, settings.ServerPrefix, settings.ListID)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.logger.Warn("mailchimp not fully configured; subscriptions are simulated",
			"api_key", set(settings.APIKey), "server_prefix", set(settings.ServerPrefix), "list_id", set(settings.ListID))
	}
	return s
}

// Configured reports whether the service talks to Mailchimp.
func (s *Service) Configured() bool { return s.client != nil }

// Subscribe adds email to the list as a pending member. An address that is
// already on the list is a success.
func (s *Service) Subscribe(ctx context.Context, email string) (Result, error) {
	email = errors.NormalizeEmail(email)
	if err := errors.ValidateEmail(email); err != nil {
		return Result{}, err
	}
	if s.client == nil {
		return simulated("Email subscription successful"), nil
	}

	_, err := s.client.AddMember(ctx, email, mailchimp.StatusPending, nil)
	switch {
	case err == nil:
		s.logger.Info("subscribed", "email", email)
		return Result{Message: MsgSubscribed}, nil
	case mailchimp.IsMemberExists(err):
		s.logger.Info("already subscribed", "email", email)
		return Result{Message: MsgAlreadySubscribed}, nil
	default:
		s.logger.Error("subscribe failed", "email", email, "err", err)
		return Result{}, upstream(err, "Subscription failed")
	}
}

// UpdatePreferences stores each preference as a "true" or "false" merge
// field on the member.
func (s *Service) UpdatePreferences(ctx context.Context, email string, prefs map[string]bool) (Result, error) {
	email = errors.NormalizeEmail(email)
	if err := errors.ValidateEmail(email); err != nil {
		return Result{}, err
	}
	if s.client == nil {
		return simulated("Preferences saved successfully"), nil
	}

	fields := make(map[string]string, len(prefs))
	for k, v := range prefs {
		fields[k] = strconv.FormatBool(v)
	}
	if _, err := s.client.UpdateMember(ctx, email, fields); err != nil {
		s.logger.Error("update preferences failed", "email", email, "err", err)
		if stderrors.Is(err, integrations.ErrNotFound) {
			return Result{}, errors.Wrap(errors.ErrCodeMemberNotFound, err, "%s is not subscribed", email)
		}
		return Result{}, upstream(err, "Failed to update preferences")
	}
	s.logger.Info("preferences saved", "email", email, "fields", len(fields))
	return Result{Message: MsgPreferencesSaved}, nil
}

// Confirm acknowledges a confirmation link. Mailchimp's own double opt-in
// does the real confirmation; the token only has to be well formed.
func (s *Service) Confirm(_ context.Context, token string) (Result, error) {
	if err := errors.ValidateToken(token); err != nil {
		return Result{}, err
	}
	if s.client == nil {
		return simulated("Subscription confirmed"), nil
	}
	s.logger.Info("subscription confirmed", "token", token)
	return Result{Message: MsgConfirmed}, nil
}

// Status describes the Mailchimp configuration without its secrets.
type Status struct {
	Configured      bool    `json:"mailchimp_configured"`
	APIKeySet       bool    `json:"api_key_set"`
	ServerPrefixSet bool    `json:"server_prefix_set"`
	ListIDSet       bool    `json:"list_id_set"`
	ServerPrefix    *string `json:"server_prefix"`
	ListID          *string `json:"list_id"`
	ConnectionTest  string  `json:"connection_test"`
}

// Status reports which settings are present and, when all are, whether the
// list can be reached.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Configured:      s.client != nil,
		APIKeySet:       s.settings.APIKey != "",
		ServerPrefixSet: s.settings.ServerPrefix != "",
		ListIDSet:       s.settings.ListID != "",
		ServerPrefix:    optional(s.settings.ServerPrefix),
		ListID:          optional(s.settings.ListID),
	}
	if s.client == nil {
		st.ConnectionTest = "Missing configuration"
		return st
	}
	list, err := s.client.Ping(ctx)
	if err != nil {
		st.ConnectionTest = "Connection failed: " + err.Error()
		return st
	}
	name := list.Name
	if name == "" {
		name = "Unknown"
	}
	st.ConnectionTest = "Connected - List: " + name
	return st
}

func simulated(msg string) Result {
	return Result{Message: msg + simulatedSuffix, Simulated: true}
}

// upstream turns a Mailchimp failure into a coded error.
func upstream(err error, what string) error {
	code := errors.ErrCodeNetwork
	switch {
	case stderrors.Is(err, integrations.ErrUnauthorized):
		code = errors.ErrCodeNotConfigured
	case stderrors.Is(err, integrations.ErrRateLimited):
		code = errors.ErrCodeRateLimited
	case stderrors.Is(err, integrations.ErrBadRequest):
		code = errors.ErrCodeInvalidInput
	}
	detail := err.Error()
	if apiErr, ok := integrations.AsAPIError(err); ok && apiErr.Body != "" {
		detail = fmt.Sprintf("HTTP %d: %s", apiErr.Status, integrations.Truncate(apiErr.Body, 200))
	}
	return errors.Wrap(code, err, "%s: %s", what, detail)
}

func set(v string) string {
	if v == "" {
		return "MISSING"
	}
	return "SET"
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
