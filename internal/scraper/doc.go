// Package scraper fetches Metin2 forum pages and turns them into monthly event schedules.
//
// Two forums are involved. The primary (Portuguese) forum carries one thread per month
// whose body is a three-column table of Data / Evento 1 / Evento 2. The secondary
// (English) forum carries a monthly events thread whose message body lists
// "Additional events:" paragraphs; those are translated, shifted from CEST to Lisbon
// time and merged into the primary schedule as extra events.
package scraper
