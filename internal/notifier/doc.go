// Package notifier provides the delivery interface for schedule messages.
//
// discord.Client is the real implementation; DryRunNotifier prints what would be
// posted so jobs can be checked without touching the Discord channel.
package notifier
