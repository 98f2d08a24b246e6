// Package cli implements the memefactory command-line interface.
//
// The commands share one [CLI] value holding the logger. Each command loads
// the layered settings (config file, environment, flags) through
// pkg/config and builds only the services it needs.
//
// # Commands
//
//   - serve: the JSON API, the masonry gallery page and the media files
//   - generate: one batch of memes from the latest news, with a progress bar
//   - layout: a masonry layout as a table or JSON, for stored memes or a
//     file of aspect ratios
//   - preview: the gallery masonry drawn in the terminal, reflowing on resize
//   - subscribe: newsletter signup and Mailchimp status
//   - cache: manage the local response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// also attached to each command's context.
package cli
