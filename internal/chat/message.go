package chat

import (
	"errors"
	"strings"
	"time"
)

// DefaultTrigger is the token that addresses the bot.
const DefaultTrigger = "!IA"

// ErrInvalidToken is returned by ValidateToken.
var ErrInvalidToken = errors.New("invalid chat token: it must start with oauth: and be at least 15 characters")

// Message is one chat line.
type Message struct {
	Username     string
	Text         string
	Color        string
	Badges       []string
	IsMod        bool
	IsSubscriber bool
	Time         time.Time
}

// IsCommand reports whether the message looks like a bot command.
func (m Message) IsCommand() bool {
	return strings.HasPrefix(m.Text, "!")
}

// Fields renders the message as a chat event.
func (m Message) Fields() map[string]any {
	return map[string]any{
		"username":      m.Username,
		"message":       m.Text,
		"badges":        m.Badges,
		"color":         m.Color,
		"timestamp":     m.Time.Format("15:04:05"),
		"is_command":    m.IsCommand(),
		"is_mod":        m.IsMod,
		"is_subscriber": m.IsSubscriber,
	}
}

// ParseTrigger reports whether text starts with token, compared
// case-insensitively, followed by a space, and returns the rest trimmed.
// The question may be empty, e.g. "!IA   ".
func ParseTrigger(token, text string) (question string, ok bool) {
	if token == "" || len(text) <= len(token) {
		return "", false
	}
	if !strings.EqualFold(text[:len(token)], token) || text[len(token)] != ' ' {
		return "", false
	}
	return strings.TrimSpace(text[len(token)+1:]), true
}

// ValidateToken checks the shape of a chat OAuth token.
func ValidateToken(token string) error {
	if !strings.HasPrefix(token, "oauth:") || len(token) < 15 {
		return ErrInvalidToken
	}
	return nil
}

// parseLine decodes a single IRC line. Only PRIVMSG lines yield a Message;
// for everything else ok is false and command holds the IRC verb.
func parseLine(line string, now time.Time) (msg Message, command string, ok bool) {
	line = strings.TrimRight(line, "\r\n")

	var tags map[string]string
	if strings.HasPrefix(line, "@") {
		raw, rest, found := strings.Cut(line[1:], " ")
		if !found {
			return Message{}, "", false
		}
		tags = parseTags(raw)
		line = rest
	}

	var prefix string
	if strings.HasPrefix(line, ":") {
		p, rest, found := strings.Cut(line[1:], " ")
		if !found {
			return Message{}, "", false
		}
		prefix = p
		line = rest
	}

	command, params, _ := strings.Cut(line, " ")
	if command != "PRIVMSG" {
		return Message{}, command, false
	}
	_, text, found := strings.Cut(params, " :")
	if !found {
		return Message{}, command, false
	}

	nick, _, _ := strings.Cut(prefix, "!")
	msg = Message{
		Username: nick,
		Text:     text,
		Color:    tags["color"],
		IsMod:    tags["mod"] == "1",
		Time:     now,
	}
	if name := tags["display-name"]; name != "" {
		msg.Username = name
	}
	msg.IsSubscriber = tags["subscriber"] == "1"
	for _, b := range strings.Split(tags["badges"], ",") {
		name, _, _ := strings.Cut(b, "/")
		switch name {
		case "broadcaster":
			msg.Badges = append(msg.Badges, "BROADCASTER")
		case "moderator":
			msg.Badges = append(msg.Badges, "MOD")
			msg.IsMod = true
		case "subscriber":
			msg.Badges = append(msg.Badges, "SUB")
			msg.IsSubscriber = true
		case "vip":
			msg.Badges = append(msg.Badges, "VIP")
		}
	}
	return msg, command, true
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, kv := range strings.Split(raw, ";") {
		k, v, _ := strings.Cut(kv, "=")
		tags[k] = v
	}
	return tags
}
