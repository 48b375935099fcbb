package sync

import "anisync/internal/anilist"

// Hook transforms one pending operation before the engine applies it. The
// engine calls it with the remapped source entry and the destination entry
// for the same media; source is nil when the destination entry is up for
// deletion, and dest is nil when the media is new to the destination list.
//
// Returning [Write] substitutes the entry that will be written. Returning
// [Suppress] drops a create, converts an update into a delete of the
// destination entry, and lets a pending delete proceed.
type Hook func(source, dest *anilist.ListEntry) Outcome

// Outcome is a [Hook] verdict. The zero value suppresses the operation.
type Outcome struct {
	entry *anilist.ListEntry
}

// Write substitutes entry as the value the engine writes.
func Write(entry anilist.ListEntry) Outcome {
	return Outcome{entry: &entry}
}

// Suppress withholds the pending write.
func Suppress() Outcome {
	return Outcome{}
}
