package domain

import "sync"

// Mailbox is the ordered, append-only message queue of one participant.
// Posting and reading are serialized by the owning session lock; the wait
// channels are additionally guarded so a long-poll can select on them
// after the session lock has been released.
type Mailbox struct {
	messages []Message
	lastID   int64

	mu     sync.Mutex
	signal chan struct{}
	ticket *WaitTicket
	closed bool
}

// WaitTicket represents one outstanding long-poll. Done is closed when a newer
// wait supersedes it or the mailbox is closed.
type WaitTicket struct {
	done chan struct{}
}

func (t *WaitTicket) Done() <-chan struct{} {
	return t.done
}

func NewMailbox() *Mailbox {
	return &Mailbox{signal: make(chan struct{})}
}

// Post appends a payload and wakes any waiter.
func (m *Mailbox) Post(payload MessagePayload) Message {
	m.lastID++
	msg := Message{ID: m.lastID, Payload: payload}
	m.messages = append(m.messages, msg)

	m.mu.Lock()
	close(m.signal)
	m.signal = make(chan struct{})
	m.mu.Unlock()
	return msg
}

func (m *Mailbox) HasMessage() bool {
	return len(m.messages) > 0
}

// PopMessage consumes the oldest pending message.
func (m *Mailbox) PopMessage() (Message, bool) {
	if len(m.messages) == 0 {
		return Message{}, false
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	return msg, true
}

// Acknowledge drops every pending message whose ID is lower or equal to lastID.
// A lastID ahead of this mailbox was issued by another node: numbering resumes after it.
func (m *Mailbox) Acknowledge(lastID int64) {
	if lastID > m.lastID {
		m.Resume(lastID)
		return
	}
	i := 0
	for i < len(m.messages) && m.messages[i].ID <= lastID {
		i++
	}
	m.messages = m.messages[i:]
}

// Resume continues the numbering after lastID, the last message a client received
// from another node. Pending messages are renumbered and kept; a lastID this
// mailbox already passed changes nothing.
func (m *Mailbox) Resume(lastID int64) {
	if lastID <= m.lastID {
		return
	}
	for i := range m.messages {
		m.messages[i].ID = lastID + int64(i) + 1
	}
	m.lastID = lastID + int64(len(m.messages))
}

// Cursor is the lastID a client passes to receive every pending message.
func (m *Mailbox) Cursor() int64 {
	if len(m.messages) > 0 {
		return m.messages[0].ID - 1
	}
	return m.lastID
}

// Pending returns a copy of the queued messages, oldest first.
func (m *Mailbox) Pending() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *Mailbox) LastID() int64 {
	return m.lastID
}

// Signal returns a channel closed by the next Post.
func (m *Mailbox) Signal() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

// BeginWait registers a new long-poll and supersedes the previous one.
func (m *Mailbox) BeginWait() *WaitTicket {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket := &WaitTicket{done: make(chan struct{})}
	if m.closed {
		close(ticket.done)
		return ticket
	}
	if m.ticket != nil {
		close(m.ticket.done)
	}
	m.ticket = ticket
	return ticket
}

// EndWait releases the ticket if it is still the current one.
func (m *Mailbox) EndWait(ticket *WaitTicket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticket == ticket {
		m.ticket = nil
	}
}

// Close cancels the outstanding wait and any later ones.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.ticket != nil {
		close(m.ticket.done)
		m.ticket = nil
	}
}

func (m *Mailbox) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
