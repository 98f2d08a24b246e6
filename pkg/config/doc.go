// Package config loads memefactory settings.
//
// Settings come from four layers, later ones winning: built-in defaults,
// a TOML file (memefactory.toml in the working directory unless a path is
// given), environment variables, and command-line flags. Environment
// variables use the plain upper-case names deployments already set, such
// as NEWS_API_KEY, OPENAI_API_KEY, MAILCHIMP_LIST_ID and PORT.
//
// Missing API keys are not errors: each integration degrades (sample news,
// fallback captions, simulated subscriptions). [Config.Missing] lists them
// so the server can say so at startup. [Config.Validate] rejects values
// that cannot work at all.
package config
