// Package ratelimit counts requests per client in a sliding window.
//
// A [Limiter] allows at most Limit requests from one client within any
// Window-long span. [Memory] keeps the timestamps in process; [Redis]
// keeps them in a sorted set per client so several server instances share
// one budget. Bucket keys come from a cache.Keyer (RateKey), the same
// keyer that names cache entries.
package ratelimit
