// Package store persists generated memes.
//
// [Store] is implemented by three backends:
//
//   - [SQLiteStore]: a single database file, the default for one instance
//   - [MongoStore]: a MongoDB collection shared by several instances
//   - [FileStore]: a JSON array on disk, kept as the last-resort fallback
//
// [Fallback] chains two stores: writes that fail on the primary land on the
// secondary, and reads that fail on the primary are answered from the
// secondary. [Open] wires the usual combination from settings.
//
// Listing returns memes newest first ([SortRecent]) or by votes
// ([SortTop]); a single page never holds more than [MaxList] memes.
package store
