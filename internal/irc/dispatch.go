package irc

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ierr "iris/internal/errors"
	"iris/internal/metrics"
	"iris/internal/session"
	"iris/util"
)

const tracerName = "iris/internal/irc"

// Client is the dispatcher's view of one connection: its protocol
// state, its own route for replies and its tagged logger.
type Client struct {
	*session.Session
	Route  Route
	Logger *util.Logger
}

// Dispatcher applies parsed commands to a client and the registry.
type Dispatcher struct {
	Registry   *Registry
	ServerName string
	Logger     *util.Logger
	Metrics    *metrics.Collector

	tracer trace.Tracer
}

// NewDispatcher returns a dispatcher using the global OpenTelemetry
// tracer provider.
func NewDispatcher(reg *Registry, serverName string, logger *util.Logger, m *metrics.Collector) *Dispatcher {
	if serverName == "" {
		serverName = DefaultServerName
	}
	return &Dispatcher{
		Registry:   reg,
		ServerName: serverName,
		Logger:     logger,
		Metrics:    m,
		tracer:     otel.Tracer(tracerName),
	}
}

// Handle runs one command for c.  Commands that arrive before the
// client is in the required state are ignored.  The return value is
// true when the client asked to quit.
func (d *Dispatcher) Handle(ctx context.Context, c *Client, msg Message) (quit bool) {
	_, span := d.tracer.Start(ctx, "irc."+msg.Command.String(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("irc.command", msg.Command.String()),
			attribute.String("irc.state", c.State().String()),
			attribute.String("net.peer.addr", c.Addr),
		))
	defer span.End()

	d.Metrics.CommandHandled(msg.Command.String())

	err := d.Registry.Do(func(tx *Tx) {
		quit = d.dispatch(tx, c, msg)
	})
	if err != nil {
		span.RecordError(err)
		if !ierr.IsHarmless(err) {
			span.SetStatus(codes.Error, "delivery failed")
			c.log().Debug("delivery failed: %v", err)
		}
	}
	return quit
}

func (d *Dispatcher) dispatch(tx *Tx, c *Client, msg Message) bool {
	state := c.State()
	switch msg.Command {
	case CmdNick:
		if state != session.Registered {
			d.nick(tx, c, msg)
		}
	case CmdUser:
		if state == session.NickSet {
			d.user(tx, c, msg)
		}
	case CmdPing:
		d.ping(tx, c, msg)
	case CmdPong:
	case CmdPrivmsg:
		if state == session.Registered {
			d.privmsg(tx, c, msg)
		}
	case CmdJoin:
		if state == session.Registered {
			d.join(tx, c, msg)
		}
	case CmdPart:
		if state == session.Registered {
			d.part(tx, c, msg)
		}
	case CmdQuit:
		d.quit(tx, c, msg)
		return true
	}
	return false
}

func (d *Dispatcher) nick(tx *Tx, c *Client, msg Message) {
	nick := msg.Param(0)
	switch {
	case nick == "":
		tx.Send(c.Route, NeedMoreParams(d.ServerName, "NICK"))
	case !ValidNickname(nick):
		tx.Send(c.Route, ErroneousNickname(d.ServerName, nick))
	default:
		if err := tx.ClaimNick(c.ID, c.Nick, nick); err != nil {
			c.log().Verbose("nick %s rejected: %v", nick, err)
			tx.Send(c.Route, NickCollision(d.ServerName, nick))
			return
		}
		c.Nick = nick
		c.log().Verbose("nick set to %s", nick)
	}
}

// user completes registration.  The real name is the trailing
// parameter, which must come after the username, mode and unused
// fields.
func (d *Dispatcher) user(tx *Tx, c *Client, msg Message) {
	realname, ok := msg.Trailing()
	if len(msg.Params) < 4 || !ok || msg.TrailingIndex() < 3 {
		tx.Send(c.Route, NeedMoreParams(d.ServerName, "USER"))
		return
	}
	c.SetRealname(realname)
	tx.Publish(c.Nick, c.Route)
	tx.Send(c.Route, Welcome(d.ServerName, c.Nick, realname))
	c.log().Info("registered as %s (%s)", c.Nick, realname)
}

func (d *Dispatcher) ping(tx *Tx, c *Client, msg Message) {
	token := strings.TrimPrefix(msg.Param(0), ":")
	if t, ok := msg.Trailing(); ok && msg.TrailingIndex() == 0 {
		token = t
	}
	if token == "" {
		token = d.ServerName
	}
	tx.Send(c.Route, Pong(token))
}

func (d *Dispatcher) privmsg(tx *Tx, c *Client, msg Message) {
	target := msg.Param(0)
	if target == "" || strings.HasPrefix(target, ":") {
		tx.Send(c.Route, NeedMoreParams(d.ServerName, "PRIVMSG"))
		return
	}
	text, ok := msg.Text()
	if !ok || text == "" {
		tx.Send(c.Route, NoTextToSend(d.ServerName, c.Nick))
		return
	}
	body := text + "\r\n"

	if rt, ok := tx.FindRoute(target); ok {
		tx.Send(rt, body)
		c.log().Debug("PRIVMSG %s -> %s", c.Nick, target)
		return
	}
	if ch, ok := tx.FindChannel(target); ok {
		for _, m := range ch.Members {
			if m == c.Nick {
				continue
			}
			rt, _ := tx.FindRoute(m)
			tx.Send(rt, body)
		}
		c.log().Debug("PRIVMSG %s -> %s (%d members)", c.Nick, target, len(ch.Members))
		return
	}
	tx.Send(c.Route, TargetNotFound(d.ServerName, c.Nick, target))
}

// join adds the client to an existing channel.  Channels are never
// created here; joining an unknown one does nothing.
func (d *Dispatcher) join(tx *Tx, c *Client, msg Message) {
	name := msg.Param(0)
	if name == "" {
		tx.Send(c.Route, NeedMoreParams(d.ServerName, "JOIN"))
		return
	}
	if !strings.HasPrefix(name, "#") {
		tx.Send(c.Route, NoSuchChannel(d.ServerName, name))
		return
	}
	ch, ok := tx.FindChannel(name)
	if !ok {
		c.log().Verbose("JOIN %s: no such channel, ignored", name)
		return
	}
	if ch.Join(c.Nick) {
		c.AddChannel(name)
		c.log().Verbose("joined %s", name)
	}
}

func (d *Dispatcher) part(tx *Tx, c *Client, msg Message) {
	name := msg.Param(0)
	if name == "" {
		tx.Send(c.Route, NeedMoreParams(d.ServerName, "PART"))
		return
	}
	ch, ok := tx.FindChannel(name)
	if !IsChannelName(name) || !ok || !ch.Part(c.Nick) {
		tx.Send(c.Route, NoSuchChannel(d.ServerName, name))
		return
	}
	c.RemoveChannel(name)
	c.log().Verbose("left %s", name)
}

func (d *Dispatcher) quit(tx *Tx, c *Client, msg Message) {
	reason, ok := msg.Trailing()
	if !ok {
		reason = msg.Param(0)
	}
	if reason == "" {
		reason = c.Name() + " has quit"
	}
	tx.Send(c.Route, Quit(reason))
}

func (c *Client) log() *util.Logger {
	if c.Logger == nil {
		return util.NewLogger(0)
	}
	return c.Logger
}
