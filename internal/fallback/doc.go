// Package fallback finds audio for items the catalog has no preview for.
//
// Resolution is best effort and never fails loudly: a search results page is scraped for a
// video id, a streams lookup host is asked for the best audio stream, and when that host
// cannot help the video's page is opened in the browser instead. Every outcome is reported
// as a [Notice] on the [Resolution].
package fallback
