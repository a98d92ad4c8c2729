package irc

import (
	"strings"
	"unicode"
)

// Command is one of the protocol verbs the server understands.
type Command int

const (
	CmdNick Command = iota + 1
	CmdUser
	CmdPing
	CmdPong
	CmdQuit
	CmdPrivmsg
	CmdJoin
	CmdPart
)

var commandNames = map[string]Command{
	"NICK":    CmdNick,
	"USER":    CmdUser,
	"PING":    CmdPing,
	"PONG":    CmdPong,
	"QUIT":    CmdQuit,
	"PRIVMSG": CmdPrivmsg,
	"JOIN":    CmdJoin,
	"PART":    CmdPart,
}

func (c Command) String() string {
	switch c {
	case CmdNick:
		return "NICK"
	case CmdUser:
		return "USER"
	case CmdPing:
		return "PING"
	case CmdPong:
		return "PONG"
	case CmdQuit:
		return "QUIT"
	case CmdPrivmsg:
		return "PRIVMSG"
	case CmdJoin:
		return "JOIN"
	case CmdPart:
		return "PART"
	default:
		return "UNKNOWN"
	}
}

// Message is a parsed client line.
type Message struct {
	Command Command
	Params  []string // whitespace-separated tokens after the command

	raw      string
	trailing int // index in Params of the first ":"-prefixed token, -1 if none
	tailText string
}

// Parse splits line into a command and its parameters.  It returns
// false for empty lines and unknown commands, which the server drops
// without a reply.
func Parse(line string) (Message, bool) {
	toks, offs := fields(line)
	if len(toks) == 0 {
		return Message{}, false
	}
	cmd, ok := commandNames[strings.ToUpper(toks[0])]
	if !ok {
		return Message{}, false
	}

	m := Message{Command: cmd, Params: toks[1:], raw: line, trailing: -1}
	for i, p := range m.Params {
		if strings.HasPrefix(p, ":") {
			m.trailing = i
			m.tailText = line[offs[i+1]+1:]
			break
		}
	}
	return m, true
}

// Param returns the i-th parameter, or "" when there are fewer.
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the rest of the line after the first parameter
// that starts with ':', without the colon.
func (m Message) Trailing() (string, bool) {
	if m.trailing < 0 {
		return "", false
	}
	return m.tailText, true
}

// TrailingIndex is the position of the trailing parameter in Params,
// or -1.
func (m Message) TrailingIndex() int { return m.trailing }

// Text returns everything after the first ':' of the raw line.  This is
// the PRIVMSG body and may contain spaces.
func (m Message) Text() (string, bool) {
	i := strings.IndexByte(m.raw, ':')
	if i < 0 {
		return "", false
	}
	return m.raw[i+1:], true
}

// fields is strings.Fields that also reports where each token starts.
func fields(s string) ([]string, []int) {
	var (
		toks  []string
		offs  []int
		start = -1
	)
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				toks = append(toks, s[start:i])
				offs = append(offs, start)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, s[start:])
		offs = append(offs, start)
	}
	return toks, offs
}
