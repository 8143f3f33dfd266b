// Package models defines domain entities and persistence interfaces for spotunisia.
//
// The package contains two categories of types:
//
// 1. Canonical catalog items: uniform shapes produced by the normalizer from raw catalog payloads
//   - [Track] : a playable item with display metadata and an optional preview URL
//   - [Artist], [Album], [Playlist], [User] : supporting display entities
//   - [Container] : an identified, ordered collection of tracks used to seed the playback queue
//
// 2. Persistent entities: database-backed records with lifecycle timestamps
//   - [Download] : a file written to disk for a track, with its source
//
// Persistent entities implement the Model interface. The Repository[T] interface defines
// standard CRUD operations for database access.
package models
