// Package store keeps saved games on disk.
//
// Each game is one file, <id>.json.zst: the persisted position state as JSON,
// compressed with zstd. Writes go to a temporary file that is renamed into
// place, so a reader never sees a partial game.
package store
