// Package cli implements the command-line interface for metin2-events.
//
// The cli package provides the Cobra-based CLI: showing a period's schedule
// (text/JSON), precomputing every period into storage, reading stored results,
// sending countdown reminders and the monthly summary to a Discord webhook,
// exporting iCalendar files, and running all jobs on cron schedules.
// It coordinates the config, scraper, discord, calendar and storage packages.
package cli
