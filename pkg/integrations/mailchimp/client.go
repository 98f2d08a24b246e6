package mailchimp

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dailymemedigest/memefactory/pkg/integrations"
)

// Member statuses accepted by the API.
const (
	StatusSubscribed   = "subscribed"
	StatusPending      = "pending"
	StatusUnsubscribed = "unsubscribed"
)

// Member is a list member.
type Member struct {
	ID           string            `json:"id,omitempty"`
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status,omitempty"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
}

// List is the subset of list metadata the status check reports.
type List struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stats struct {
		MemberCount int `json:"member_count"`
	} `json:"stats"`
}

// Client provides access to one Mailchimp audience list.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	listID  string
}

// NewClient creates a client for the list listID in the data center given by
// serverPrefix (the "us21" in https://us21.api.mailchimp.com).
func NewClient(apiKey, serverPrefix, listID string) *Client {
	auth := base64.StdEncoding.EncodeToString([]byte("memefactory:" + apiKey))
	headers := map[string]string{"Authorization": "Basic " + auth}
	return &Client{
		Client:  integrations.NewClient(nil, "mailchimp", 0, headers),
		baseURL: fmt.Sprintf("https://%s.api.mailchimp.com/3.0", serverPrefix),
		listID:  listID,
	}
}

// WithBaseURL points the client at another server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// SubscriberHash returns the member id Mailchimp derives from an email.
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// AddMember adds email to the list with the given status. FNAME defaults to
// the local part of the address unless mergeFields sets it.
func (c *Client) AddMember(ctx context.Context, email, status string, mergeFields map[string]string) (*Member, error) {
	fields := map[string]string{"FNAME": localPart(email)}
	for k, v := range mergeFields {
		fields[k] = v
	}
	in := Member{EmailAddress: email, Status: status, MergeFields: fields}

	var out Member
	if err := c.Do(ctx, http.MethodPost, c.membersURL(), nil, in, &out); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return &out, nil
}

// UpdateMember patches a member's merge fields.
func (c *Client) UpdateMember(ctx context.Context, email string, mergeFields map[string]string) (*Member, error) {
	body := map[string]any{"merge_fields": mergeFields}

	var out Member
	if err := c.Do(ctx, http.MethodPatch, c.memberURL(email), nil, body, &out); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return &out, nil
}

// GetMember fetches a member. A missing member yields an error matching
// integrations.ErrNotFound.
func (c *Client) GetMember(ctx context.Context, email string) (*Member, error) {
	var out Member
	if err := c.DoWithRetry(ctx, http.MethodGet, c.memberURL(email), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &out, nil
}

// Ping fetches the list, proving the credentials and list id work.
func (c *Client) Ping(ctx context.Context) (*List, error) {
	var out List
	if err := c.Do(ctx, http.MethodGet, c.baseURL+"/lists/"+c.listID, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("ping list: %w", err)
	}
	return &out, nil
}

// IsMemberExists reports whether err is Mailchimp's answer to adding an
// address that is already on the list.
func IsMemberExists(err error) bool {
	apiErr, ok := integrations.AsAPIError(err)
	if !ok || !errors.Is(err, integrations.ErrBadRequest) {
		return false
	}
	body := strings.ToLower(apiErr.Body)
	return strings.Contains(body, "already a list member") || strings.Contains(body, "member exists")
}

func (c *Client) membersURL() string {
	return c.baseURL + "/lists/" + c.listID + "/members"
}

func (c *Client) memberURL(email string) string {
	return c.membersURL() + "/" + SubscriberHash(email)
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
