// Package storage persists the precomputed embeds of each period.
//
// The refresh job builds every period ahead of time and saves the result so that
// replies do not have to scrape the forums. Two backends are available: FileStore
// writes one JSON file per period (today.json, week.json, ...) and BoltStore keeps
// them in a single bbolt database. The default location is
// ~/.local/share/metin2-events/.
package storage
