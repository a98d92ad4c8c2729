package irc

import "fmt"

// Numeric reply codes.
const (
	RplWelcome          = "001"
	ErrNoSuchChannel    = "403"
	ErrNoTextToSend     = "412"
	ErrErroneusNickname = "432"
	ErrNickCollision    = "436"
	ErrNeedMoreParams   = "461"
)

// DefaultServerName prefixes replies when no name is configured.
const DefaultServerName = "iris-server"

func Welcome(srv, nick, realname string) string {
	return fmt.Sprintf(":%s %s %s :Hi %s, welcome to IRC\r\n", srv, RplWelcome, nick, realname)
}

func NeedMoreParams(srv, cmd string) string {
	return fmt.Sprintf(":%s %s %s :Need more parameters\r\n", srv, ErrNeedMoreParams, cmd)
}

// TargetNotFound is the notice a sender gets when a PRIVMSG target is
// neither a registered nick nor a channel.
func TargetNotFound(srv, nick, target string) string {
	return fmt.Sprintf(":%s NOTICE %s :%s Target client not found\r\n", srv, nick, target)
}

func NoTextToSend(srv, nick string) string {
	return fmt.Sprintf(":%s %s %s :No text to send\r\n", srv, ErrNoTextToSend, nick)
}

func NoSuchChannel(srv, channel string) string {
	return fmt.Sprintf(":%s %s %s :No such channel\r\n", srv, ErrNoSuchChannel, channel)
}

func ErroneousNickname(srv, nick string) string {
	return fmt.Sprintf(":%s %s %s :Erroneous nickname\r\n", srv, ErrErroneusNickname, nick)
}

func NickCollision(srv, nick string) string {
	return fmt.Sprintf(":%s %s %s :Nickname collision\r\n", srv, ErrNickCollision, nick)
}

func Pong(token string) string { return "PONG :" + token + "\r\n" }

func Quit(reason string) string { return "QUIT :" + reason + "\r\n" }

// ServerNotice is a PRIVMSG originating from the server itself, used
// for operator messages typed at the console.
func ServerNotice(srv, target, text string) string {
	return fmt.Sprintf(":%s PRIVMSG %s :%s\r\n", srv, target, text)
}
