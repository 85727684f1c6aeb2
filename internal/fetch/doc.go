// Package fetch downloads candidate pages and turns them into plain text.
//
// The fetch client bounds every request with a timeout and a byte cap,
// follows redirects, decodes non-UTF-8 HTML, strips scripts and styles, and
// extracts text from PDF fee schedules. Failures are soft: PageText returns
// an empty string, which the classifier treats as "no evidence".
package fetch
