// Package session holds the per-connection protocol state: who the
// peer claims to be and which channels it has joined.
//
// A Session is created when a socket is accepted and discarded when
// its connection loop exits.  It is owned by that loop; the dispatcher
// mutates it only while handling the loop's own commands, so it needs
// no locking of its own.
package session

import (
	"github.com/google/uuid"
)

// State is the registration state of a connection.
type State int

const (
	// Unregistered sessions have sent neither a valid NICK nor USER.
	Unregistered State = iota
	// NickSet sessions hold a nickname but have no real name yet.
	NickSet
	// Registered sessions are routable by nickname.
	Registered
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case NickSet:
		return "nick-set"
	case Registered:
		return "registered"
	default:
		return "unknown"
	}
}

// Session encapsulates the runtime state of a single client.
type Session struct {
	ID   uuid.UUID // stable identity used by the registry
	Addr string    // remote socket address, used as log key

	Nick     string
	Channels []string

	realname    string
	hasRealname bool
}

// New creates an unregistered Session for the peer at addr.
func New(addr string) *Session {
	return &Session{ID: uuid.New(), Addr: addr}
}

// SetRealname records the USER real name.
func (s *Session) SetRealname(name string) {
	s.realname = name
	s.hasRealname = true
}

// Realname returns the real name and whether one has been set.
func (s *Session) Realname() (string, bool) {
	return s.realname, s.hasRealname
}

// Registered reports whether both nickname and real name are known.
func (s *Session) Registered() bool {
	return s.Nick != "" && s.hasRealname
}

// State derives the registration state from the session fields.
func (s *Session) State() State {
	switch {
	case s.Registered():
		return Registered
	case s.Nick != "":
		return NickSet
	default:
		return Unregistered
	}
}

// Name returns the nickname, or "*" before one has been accepted.
func (s *Session) Name() string {
	if s.Nick == "" {
		return "*"
	}
	return s.Nick
}

// InChannel reports whether name is among the joined channels.
func (s *Session) InChannel(name string) bool {
	for _, c := range s.Channels {
		if c == name {
			return true
		}
	}
	return false
}

// AddChannel appends name unless it is already present.
func (s *Session) AddChannel(name string) {
	if !s.InChannel(name) {
		s.Channels = append(s.Channels, name)
	}
}

// RemoveChannel drops name, preserving the order of the rest.
func (s *Session) RemoveChannel(name string) {
	for i, c := range s.Channels {
		if c == name {
			s.Channels = append(s.Channels[:i], s.Channels[i+1:]...)
			return
		}
	}
}
