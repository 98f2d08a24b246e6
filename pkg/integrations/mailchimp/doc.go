// Package mailchimp provides a client for the Mailchimp Marketing API's list
// member endpoints.
//
// Members are addressed by their subscriber hash, the hex MD5 of the
// lower-cased email address ([SubscriberHash]). Requests authenticate with
// HTTP basic auth, using any user name and the API key as password.
//
//	client := mailchimp.NewClient(apiKey, "us21", listID)
//	member, err := client.AddMember(ctx, "jane@example.com", mailchimp.StatusPending, nil)
//	if mailchimp.IsMemberExists(err) {
//	    // already subscribed
//	}
package mailchimp
