// Package investing collects sovereign yield series from the global
// quotes site. The site sits behind an anti-bot challenge, so every
// request goes through a browser-fingerprint HTTP client with a
// challenge-bypass transport and a shared cookie jar; pages the
// fingerprint path cannot clear are rendered in a real headless
// browser instead.
//
// Collection is a sequential, paced catalog walk. Per instrument the
// numeric id is resolved by scraping the instrument page (successes
// are cached for the life of the resolver), then the page's internal
// history AJAX endpoint is replayed for the requested window.
// Failures stay per-instrument: a missing or unresolvable instrument
// costs its column, never the run.
package investing
