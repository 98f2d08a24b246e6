// Package server is the memefactory HTTP API and gallery.
//
// Routes are served by a chi router. JSON responses share one envelope:
// a "success" flag plus either the payload fields or an "error" message
// and its code. Coded errors from pkg/errors choose the status code.
//
// The gallery page and the /api/memes/layout endpoint lay memes out with
// the masonry engine on the server: each request configures a Grid on an
// in-memory container, waits for image sizes, and returns or renders the
// resulting placements. Layouts are cached by page content and geometry.
package server
