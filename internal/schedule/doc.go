// Package schedule provides the types and pure helpers for Metin2 monthly event schedules.
//
// A MonthlySchedule is resolved from a forum thread whose title encodes the month and
// year (e.g. "[Tigerghost] Eventos Metin2 – agosto 2025"). The package also owns the
// bilingual month dictionary used to match thread titles and URLs, and the period
// vocabulary (today, week, month, next) used to pick which month to resolve.
package schedule
