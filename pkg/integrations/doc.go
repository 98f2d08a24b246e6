// Package integrations provides HTTP clients for the upstream APIs the site
// depends on.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [newsapi]: NewsAPI article search
//   - [openai]: chat completions and image generation
//   - [mailchimp]: mailing-list members
//
// # Client Pattern
//
// All clients embed the shared [Client], which handles:
//   - JSON requests and responses
//   - Retry with exponential backoff for network errors, 5xx and 429
//   - Response caching through any [cache.Cache] backend
//   - Observability hooks for every request
//
// Status codes map to sentinel errors ([ErrNotFound], [ErrUnauthorized],
// [ErrRateLimited], [ErrBadRequest], [ErrNetwork]) wrapped in an [APIError]
// that keeps the response body for diagnostics:
//
//	var out Response
//	err := client.Do(ctx, http.MethodPost, url, nil, body, &out)
//	if apiErr, ok := integrations.AsAPIError(err); ok && apiErr.Status == 400 {
//	    // inspect apiErr.Body
//	}
//
// [newsapi]: github.com/dailymemedigest/memefactory/pkg/integrations/newsapi
// [openai]: github.com/dailymemedigest/memefactory/pkg/integrations/openai
// [mailchimp]: github.com/dailymemedigest/memefactory/pkg/integrations/mailchimp
// [cache.Cache]: github.com/dailymemedigest/memefactory/pkg/cache.Cache
package integrations
