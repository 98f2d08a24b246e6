// Package subscribe runs the newsletter sign-up funnel on top of a
// Mailchimp audience list.
//
// New addresses are added as pending members, so Mailchimp sends its own
// double opt-in email. Preferences are stored as "true"/"false" merge
// fields on the member.
//
// A Service built from incomplete settings runs in simulated mode: every
// call validates its input and succeeds with a message noting that
// Mailchimp is not configured. Local development needs no account.
package subscribe
