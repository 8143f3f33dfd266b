// Package services talks to the remote HTTP APIs spotunisia depends on.
//
// # Catalog Gateway
//
// [SpotifyService] issues authenticated GET requests against the Spotify Web API and decodes
// the raw payloads into the Spotify* types in this package. It never normalizes: callers
// hand payloads to the normalize package. The bearer token is installed with
// [SpotifyService.Authenticate] and carried by an [oauth2.StaticTokenSource] client, so the
// gateway never refreshes or retries. Expiry is the session guard's job.
//
// Authorization uses the implicit grant: [SpotifyService.ImplicitGrantURL] builds the
// authorize URL and the token comes back in the redirect fragment.
//
// # Pagination
//
// [Paginate] walks offset pages strictly one after another, following a page's next link
// until it is null and concatenating items in order.
//
// # Web pages
//
// [APIService] is a plain fetcher for pages and JSON documents outside the catalog. The
// fallback resolver uses it for search result pages and stream lookups.
//
// # Error Handling
//
// A non-2xx catalog response becomes an [*APIError] carrying the status code:
//   - errors.Is(err, [shared.ErrAPIRequest]) holds for every status
//   - errors.Is(err, [shared.ErrTokenExpired]) additionally holds for 401
//   - errors.Is(err, [shared.ErrNotAuthenticated]) means Authenticate was never called
package services
