// Package chat reads a Twitch channel over IRC-on-WebSocket and detects
// trigger messages addressed to the bot.
package chat
