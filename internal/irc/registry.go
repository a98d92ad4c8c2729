// Package irc implements the chat protocol: message parsing, the
// shared registry of nicks and channels, and the command dispatcher.
package irc

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	ierr "iris/internal/errors"
	"iris/internal/metrics"
)

// Route is the writable handle of a registered client.
// *transport.Outbox satisfies it.
type Route interface {
	Send(msg string) error
}

// Registry is the single consistency point for nick ownership, routing
// and channel membership.  Every read and write happens under one
// mutex, but messages are only queued while it is held and are handed
// to their routes after it is released.
type Registry struct {
	mu       sync.Mutex
	clients  map[string]uuid.UUID // every claimed nick
	routes   map[string]Route     // registered nicks only
	channels []*Channel

	serverName string
	metrics    *metrics.Collector
}

// NewRegistry returns an empty registry.  serverName prefixes the
// notices produced by Notify.
func NewRegistry(serverName string, m *metrics.Collector) *Registry {
	if serverName == "" {
		serverName = DefaultServerName
	}
	return &Registry{
		clients:    make(map[string]uuid.UUID),
		routes:     make(map[string]Route),
		serverName: serverName,
		metrics:    m,
	}
}

type delivery struct {
	to  Route
	msg string
}

// Tx is the view of the registry inside Do.  It must not be retained
// after fn returns.
type Tx struct {
	r   *Registry
	out []delivery
}

// Do runs fn with exclusive access to the registry, then delivers the
// messages fn queued with Send in queue order.  Delivery failures are
// joined and returned; the registry changes made by fn stand regardless.
func (r *Registry) Do(fn func(tx *Tx)) error {
	tx := &Tx{r: r}
	r.locked(func() { fn(tx) })

	var errs []error
	for _, d := range tx.out {
		if err := d.to.Send(d.msg); err != nil {
			errs = append(errs, err)
		}
	}
	return ierr.Join(errs...)
}

func (r *Registry) locked(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// Send queues msg for to.  Nothing is written until Do returns.
func (tx *Tx) Send(to Route, msg string) {
	if to == nil {
		return
	}
	tx.out = append(tx.out, delivery{to: to, msg: msg})
}

// FindRoute returns the route of a registered nick.
func (tx *Tx) FindRoute(nick string) (Route, bool) {
	rt, ok := tx.r.routes[nick]
	return rt, ok
}

// FindChannel returns the channel called name.
func (tx *Tx) FindChannel(name string) (*Channel, bool) {
	for _, c := range tx.r.channels {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ClaimNick gives nick to the session id, releasing old if id holds it.
// It fails with ErrNickInUse when another session owns nick.
func (tx *Tx) ClaimNick(id uuid.UUID, old, nick string) error {
	if owner, ok := tx.r.clients[nick]; ok {
		if owner == id {
			return nil
		}
		return fmt.Errorf("%w: %s", ierr.ErrNickInUse, nick)
	}
	if old != "" && tx.r.clients[old] == id {
		delete(tx.r.clients, old)
	}
	tx.r.clients[nick] = id
	return nil
}

// Publish makes nick routable through rt.
func (tx *Tx) Publish(nick string, rt Route) {
	if _, ok := tx.r.routes[nick]; !ok {
		tx.r.metrics.ClientRegistered()
	}
	tx.r.routes[nick] = rt
}

// Remove erases every trace of nick.
func (tx *Tx) Remove(nick string) {
	tx.r.remove(nick)
}

func (r *Registry) remove(nick string) {
	if nick == "" {
		return
	}
	if _, ok := r.routes[nick]; ok {
		delete(r.routes, nick)
		r.metrics.ClientUnregistered()
	}
	delete(r.clients, nick)
	for _, c := range r.channels {
		c.Part(nick)
	}
}

// Remove erases nick from the client table, the routing table and
// every channel.  Connection loops call it on exit.
func (r *Registry) Remove(nick string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(nick)
}

// CreateChannel adds an empty channel.  Creating an existing channel
// is a no-op.
func (r *Registry) CreateChannel(name string) error {
	if !IsChannelName(name) {
		return fmt.Errorf("invalid channel name %q: must start with '#'", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.channels {
		if c.Name == name {
			return nil
		}
	}
	r.channels = append(r.channels, &Channel{Name: name})
	return nil
}

// Notify sends text from the server to a registered nick, or to every
// member of a channel.
func (r *Registry) Notify(target, text string) error {
	var found bool
	err := r.Do(func(tx *Tx) {
		if rt, ok := tx.FindRoute(target); ok {
			found = true
			tx.Send(rt, ServerNotice(r.serverName, target, text))
			return
		}
		if ch, ok := tx.FindChannel(target); ok {
			found = true
			for _, m := range ch.Members {
				rt, _ := tx.FindRoute(m)
				tx.Send(rt, ServerNotice(r.serverName, target, text))
			}
		}
	})
	if !found {
		return fmt.Errorf("%w: %s", ierr.ErrUnknownTarget, target)
	}
	return err
}

// ChannelInfo is a point-in-time copy of a channel.
type ChannelInfo struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Channels returns a snapshot of every channel in creation order.
func (r *Registry) Channels() []ChannelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChannelInfo, 0, len(r.channels))
	for _, c := range r.channels {
		members := make([]string, len(c.Members))
		copy(members, c.Members)
		out = append(out, ChannelInfo{Name: c.Name, Members: members})
	}
	return out
}

// Stats counts the registry's contents.
type Stats struct {
	Nicks      int `json:"nicks"`
	Registered int `json:"registered"`
	Channels   int `json:"channels"`
}

// Stats returns current counts.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{Nicks: len(r.clients), Registered: len(r.routes), Channels: len(r.channels)}
}
