// Package search queries a web search provider for candidate pages.
//
// BraveClient talks to the Brave Web Search API. Requests are rate-limited,
// bounded by a timeout and retried with exponential backoff on throttling or
// server errors. Any remaining failure wraps ErrUnavailable; callers treat it
// as an empty result set.
package search
