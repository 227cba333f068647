package bus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

const (
	defaultLogCapacity    = 1000
	defaultHandlerTimeout = 5 * time.Second
	tapBufferSize         = 64
)

// Handler consumes a delivered message. Errors are logged and isolated;
// they never reach the publisher or other subscribers.
type Handler func(ctx context.Context, msg Message) error

// SubscriptionID identifies one registered subscription.
type SubscriptionID string

// Logger records bus diagnostics. *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

type subscription struct {
	id      SubscriptionID
	role    pipeline.Role
	types   map[MessageType]struct{}
	handler Handler
}

func (s *subscription) matches(m Message) bool {
	if s.role != m.To {
		return false
	}
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[m.Type]
	return ok
}

// tap is a named observer channel receiving copies of every published
// message. Slow taps drop; they exist for monitoring, not correctness.
type tap struct {
	name string
	ch   chan Message
}

// Bus routes typed messages between roles and keeps the audit log.
// A single mutex guards the log, subscriptions, and taps; handlers run
// outside the lock, strictly in registration order, each awaited.
type Bus struct {
	mu             sync.Mutex
	log            *messageLog
	subs           []*subscription
	taps           []*tap
	logger         Logger
	now            func() time.Time
	handlerTimeout time.Duration
}

// Option customizes a Bus during construction.
type Option func(*Bus)

// WithLogger injects a logger for delivery diagnostics.
func WithLogger(logger Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithLogCapacity overrides the audit log capacity.
func WithLogCapacity(capacity int) Option {
	return func(b *Bus) {
		if capacity > 0 {
			b.log = newMessageLog(capacity)
		}
	}
}

// WithHandlerTimeout bounds how long one handler may run per delivery.
// Zero disables the bound.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d >= 0 {
			b.handlerTimeout = d
		}
	}
}

// WithBusClock overrides the clock used for assigned timestamps.
func WithBusClock(clock func() time.Time) Option {
	return func(b *Bus) {
		if clock != nil {
			b.now = clock
		}
	}
}

// New constructs a bus with sane defaults.
func New(opts ...Option) *Bus {
	b := &Bus{
		log:            newMessageLog(defaultLogCapacity),
		now:            time.Now,
		handlerTimeout: defaultHandlerTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers interest in messages addressed to role. An empty
// type list accepts every type for that role. Multiple subscriptions per
// role are allowed and all are notified independently.
func (b *Bus) Subscribe(role pipeline.Role, types []MessageType, handler Handler) SubscriptionID {
	sub := &subscription{
		id:      SubscriptionID(uuid.New().String()),
		role:    role,
		handler: handler,
	}
	if len(types) > 0 {
		sub.types = make(map[MessageType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub.id
}

// Unsubscribe removes a subscription. Removing an unknown id is a no-op.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Tap returns a named observer channel that receives a copy of every
// message published from now on. The channel is buffered; slow consumers
// drop. Intended for monitors, not for pipeline logic.
func (b *Bus) Tap(name string) <-chan Message {
	t := &tap{name: name, ch: make(chan Message, tapBufferSize)}
	b.mu.Lock()
	b.taps = append(b.taps, t)
	b.mu.Unlock()
	return t.ch
}

// Publish records the message in the audit log and delivers it to every
// matching subscription, sequentially in registration order, awaiting each
// handler. Handler failures are logged and isolated: Publish never fails
// because of subscriber behavior. The stored message is returned.
func (b *Bus) Publish(ctx context.Context, msg Message) Message {
	msg, matching := b.commit(msg)
	for _, sub := range matching {
		b.deliver(ctx, sub, msg)
	}
	return msg
}

// commit assigns defaults, appends the message to the log, fans it out to
// the taps, and snapshots the matching subscriptions. Everything happens
// under the mutex, so tap channels cannot be closed mid-fan-out and the
// message is in the log before commit returns.
func (b *Bus) commit(msg Message) (Message, []*subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg.normalize(b.now())
	b.log.append(msg)
	matching := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.matches(msg) {
			matching = append(matching, sub)
		}
	}
	for _, t := range b.taps {
		select {
		case t.ch <- msg:
		default: // drop if the observer is slow
		}
	}
	return msg, matching
}

func (b *Bus) deliver(ctx context.Context, sub *subscription, msg Message) {
	if sub.handler == nil {
		return
	}
	handlerCtx := ctx
	if b.handlerTimeout > 0 {
		var cancel context.CancelFunc
		handlerCtx, cancel = context.WithTimeout(ctx, b.handlerTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			b.warnf("subscriber panicked", "subscription", string(sub.id), "role", string(sub.role), "message", msg.ID, "panic", fmt.Sprint(r))
		}
	}()
	if err := sub.handler(handlerCtx, msg); err != nil {
		b.warnf("subscriber failed", "subscription", string(sub.id), "role", string(sub.role), "message", msg.ID, "error", err.Error())
	}
}

func (b *Bus) warnf(event string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warnw(event, keysAndValues...)
	}
}

// Send constructs a message and publishes it without waiting for delivery
// to finish. The message is already in the audit log when Send returns;
// only the hand-off to subscribers is still in flight. Callers that need
// delivery confirmation use Publish.
func (b *Bus) Send(from, to pipeline.Role, msgType MessageType, subject, body string, opts ...MessageOption) Message {
	msg := Message{
		Type:    msgType,
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&msg)
		}
	}
	msg, matching := b.commit(msg)
	go func() {
		for _, sub := range matching {
			b.deliver(context.Background(), sub, msg)
		}
	}()
	return msg
}

// Reply answers an existing message: sender and recipient swap, the
// subject gains a single "Re: " prefix, the original type and priority
// carry over unless WithType or WithPriority override them, and the reply
// is threaded under the original. Send semantics otherwise.
func (b *Bus) Reply(original Message, body string, opts ...MessageOption) Message {
	subject := original.Subject
	if !strings.HasPrefix(subject, "Re: ") {
		subject = "Re: " + subject
	}
	merged := append([]MessageOption{
		WithPriority(original.Priority),
		WithParent(original.ID),
	}, opts...)
	return b.Send(original.To, original.From, original.Type, subject, body, merged...)
}

// Broadcast delivers an individual message to every role that currently
// holds at least one subscription, excluding the sender. Recipients come
// from live subscriptions, never from message history. Deliveries are
// awaited, one recipient at a time, in first-subscription order.
func (b *Bus) Broadcast(ctx context.Context, from pipeline.Role, msgType MessageType, subject, body string, opts ...MessageOption) []Message {
	b.mu.Lock()
	seen := make(map[pipeline.Role]struct{}, len(b.subs))
	recipients := make([]pipeline.Role, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.role == from {
			continue
		}
		if _, ok := seen[sub.role]; ok {
			continue
		}
		seen[sub.role] = struct{}{}
		recipients = append(recipients, sub.role)
	}
	b.mu.Unlock()

	sent := make([]Message, 0, len(recipients))
	for _, to := range recipients {
		msg := Message{
			Type:    msgType,
			From:    from,
			To:      to,
			Subject: subject,
			Body:    body,
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&msg)
			}
		}
		sent = append(sent, b.Publish(ctx, msg))
	}
	return sent
}

// MessagesFor returns logged messages addressed to role, optionally
// narrowed to the given types, in log order.
func (b *Bus) MessagesFor(role pipeline.Role, types ...MessageType) []Message {
	return b.filter(func(m Message) bool {
		return m.To == role && typeMatches(m.Type, types)
	})
}

// MessagesFrom returns logged messages sent by role, optionally narrowed
// to the given types, in log order.
func (b *Bus) MessagesFrom(role pipeline.Role, types ...MessageType) []Message {
	return b.filter(func(m Message) bool {
		return m.From == role && typeMatches(m.Type, types)
	})
}

func typeMatches(t MessageType, types []MessageType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

// Conversation returns every message exchanged between a and b in either
// direction, sorted ascending by timestamp.
func (b *Bus) Conversation(first, second pipeline.Role) []Message {
	out := b.filter(func(m Message) bool {
		return (m.From == first && m.To == second) || (m.From == second && m.To == first)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Thread reconstructs the conversation tree containing the named message:
// the thread root first, then every direct and transitive reply in
// depth-first discovery order, each exactly once. A visited guard keeps
// malformed parent cycles from looping.
func (b *Bus) Thread(id string) []Message {
	b.mu.Lock()
	snapshot := append([]Message(nil), b.log.all()...)
	b.mu.Unlock()

	byID := make(map[string]Message, len(snapshot))
	children := make(map[string][]Message, len(snapshot))
	for _, m := range snapshot {
		byID[m.ID] = m
		if m.ParentID != "" {
			children[m.ParentID] = append(children[m.ParentID], m)
		}
	}
	root, ok := byID[id]
	if !ok {
		return nil
	}
	seen := map[string]struct{}{root.ID: {}}
	for root.ParentID != "" {
		parent, ok := byID[root.ParentID]
		if !ok {
			break
		}
		if _, cycle := seen[parent.ID]; cycle {
			break
		}
		seen[parent.ID] = struct{}{}
		root = parent
	}

	var out []Message
	visited := map[string]struct{}{}
	var walk func(Message)
	walk = func(m Message) {
		if _, ok := visited[m.ID]; ok {
			return
		}
		visited[m.ID] = struct{}{}
		out = append(out, m)
		for _, child := range children[m.ID] {
			walk(child)
		}
	}
	walk(root)
	return out
}

func (b *Bus) filter(keep func(Message) bool) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Message
	for _, m := range b.log.all() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Recent returns up to n of the newest logged messages in log order.
func (b *Bus) Recent(n int) []Message {
	if n <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.log.all()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return append([]Message(nil), all...)
}

// RoleStats counts traffic for one role.
type RoleStats struct {
	Sent     int
	Received int
}

// Stats summarizes the current audit log.
type Stats struct {
	Total  int
	ByType map[MessageType]int
	ByRole map[pipeline.Role]RoleStats
}

// Stats derives counts from the audit log.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := Stats{
		ByType: map[MessageType]int{},
		ByRole: map[pipeline.Role]RoleStats{},
	}
	for _, m := range b.log.all() {
		stats.Total++
		stats.ByType[m.Type]++
		from := stats.ByRole[m.From]
		from.Sent++
		stats.ByRole[m.From] = from
		to := stats.ByRole[m.To]
		to.Received++
		stats.ByRole[m.To] = to
	}
	return stats
}

// Clear resets the log, all subscriptions, and all taps. Intended for
// process reset and test isolation, not normal operation.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log.reset()
	b.subs = nil
	for _, t := range b.taps {
		close(t.ch)
	}
	b.taps = nil
}
