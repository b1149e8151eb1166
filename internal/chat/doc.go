// Package chat mirrors rendered cards into a chat channel.
//
// The chat platform is reached through the [Messenger] interface. A
// [Reconciler] keeps one message per server: the first reconciliation
// creates it, every later one re-resolves the stored message id and edits
// the message in place. Failures are logged and reported per server; they
// never clear a stored handle and never abort the rest of a pass.
//
// Adapters:
//
//   - [DiscordMessenger]: Discord bot session using embeds
//   - [LogMessenger]: dry-run messenger that only logs
package chat
