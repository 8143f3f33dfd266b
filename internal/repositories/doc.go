// Package repositories implements SQLite persistence for spotunisia.
//
// Key Implementations:
//   - [KVRepository] : string key/value rows backing the session token store
//   - [DownloadRepository] : history of files written by the download command
//
// Tables are created by the embedded migrations in the shared package.
package repositories
