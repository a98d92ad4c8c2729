package irc

import "strings"

// Channel is a named group of registered nicks.  Membership is a set.
type Channel struct {
	Name    string
	Members []string
}

// IsChannelName reports whether name has the channel prefix and
// something after it.
func IsChannelName(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, "#")
}

// Has reports whether nick is a member.
func (c *Channel) Has(nick string) bool {
	for _, m := range c.Members {
		if m == nick {
			return true
		}
	}
	return false
}

// Join adds nick and reports whether it was newly added.
func (c *Channel) Join(nick string) bool {
	if c.Has(nick) {
		return false
	}
	c.Members = append(c.Members, nick)
	return true
}

// Part removes nick and reports whether it was a member.
func (c *Channel) Part(nick string) bool {
	for i, m := range c.Members {
		if m == nick {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return true
		}
	}
	return false
}
