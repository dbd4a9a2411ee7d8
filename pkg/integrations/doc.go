// Package integrations provides HTTP clients for package registry APIs.
//
// groupsync only talks to one registry, PyPI, and only to ask for the
// newest release of a distribution (see [pypi]). This package holds the
// plumbing that client is built on:
//
//   - [Client]: JSON GET with default headers, status mapping and a
//     read-through [cache.Cache]
//   - [ErrNotFound] and [ErrNetwork]: what registry failures map to
//
// A 404 becomes ErrNotFound and is never retried. Connection errors and
// 5xx responses become ErrNetwork wrapped in [httputil.RetryableError], so
// [Client.Cached] retries them with backoff.
//
// [pypi]: github.com/matzehuels/groupsync/pkg/integrations/pypi
// [cache.Cache]: github.com/matzehuels/groupsync/pkg/cache.Cache
// [httputil.RetryableError]: github.com/matzehuels/groupsync/pkg/httputil.RetryableError
package integrations
