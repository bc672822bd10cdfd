// Package snapshot provides persistence backends for world memory
// snapshots. The default FileStore writes one JSON document per world;
// the sqlite subpackage stores snapshots in an embedded database.
package snapshot
