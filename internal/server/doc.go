// Package server provides HTTP routing, middleware, and the login redirect capture.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Redirect Capture
//
// The catalog's implicit grant returns the access token in the URL fragment, which browsers never
// send to a server. [CaptureHandler] serves a small page at /callback whose script posts
// location.hash to /capture and then removes it from the address bar. /capture feeds the fragment
// to the [session.Guard], persists the token, and reports the outcome once on [CaptureHandler.Result].
//
// [Listen] runs a router until the context ends, which is how the login command hosts the
// capture page on the configured redirect address.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
