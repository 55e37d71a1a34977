// Package extract copies a single native library out of an archive and
// onto the filesystem.
//
// Extraction runs in two phases. A Locator finds the entry inside an
// archive.Reader and reports the outcome to a LocalizingListener. An
// Extractor then streams the located entry to its destination and reports
// exactly one of completion or failure, followed by exactly one
// finalization event, to its Listener.
//
// Bytes are written to a temporary sibling of the destination and renamed
// into place, so a reader of the destination never observes a partial
// file. A lock file next to the destination serializes writers from other
// processes.
package extract
