// Package database provides SQLite-backed persistence for crawl data:
// a log of every completed lookup and a store of discovered names.
// The database is an audit trail and export source; the crawl's
// restartable state lives in the JSON checkpoint, not here.
package database
