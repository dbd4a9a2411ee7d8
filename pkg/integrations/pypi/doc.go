// Package pypi fetches release information from the Python Package Index
// JSON API (GET <base>/<name>/json).
//
//	client := pypi.NewClient(c, 24*time.Hour)
//	latest, err := client.LatestVersion(ctx, "requests", false)
//
// Names are normalised (PEP 503) before lookup, so "Flask_Login" and
// "flask-login" share a cache entry. The newest release is chosen by
// version ordering over the release list, skipping releases whose files
// are all yanked and, unless asked for, pre-releases.
package pypi
