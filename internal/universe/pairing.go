package universe

import (
	"fmt"
	"slices"

	"github.com/roach88/hindsight/internal/ir"
)

// UnlockOf returns the UNLOCK that releases the LOCK lockID.
//
// Lock pairs are formed per variable in clock order. A LOCK opens a pair only
// when the variable's previous pair is closed, so a re-entrant LOCK has no
// UNLOCK of its own and reports ok=false, as does a lock never released.
func (u *Universe) UnlockOf(lockID string) (ir.Event, bool, error) {
	lock, err := u.eventOfKind(lockID, ir.KindLock)
	if err != nil {
		return ir.Event{}, false, err
	}
	variable := variableOf(lock)

	var open *ir.Event
	for i := range u.events {
		ev := &u.events[i]
		if variableOf(*ev) != variable {
			continue
		}
		switch ev.Kind {
		case ir.KindLock:
			if open == nil {
				open = ev
			}
		case ir.KindUnlock:
			if open != nil && open.ID == lockID {
				return *ev, true, nil
			}
			open = nil
		}
	}
	return ir.Event{}, false, nil
}

// JoinOf returns the first JOIN whose child is the thread that emitted the
// END endID. A child named without a process matches threads of the joining
// process.
func (u *Universe) JoinOf(endID string) (ir.Event, bool, error) {
	end, err := u.eventOfKind(endID, ir.KindEnd)
	if err != nil {
		return ir.Event{}, false, err
	}

	for _, ev := range u.events {
		if ev.Kind != ir.KindJoin {
			continue
		}
		if joinsThread(ev, end.Thread) {
			return ev, true, nil
		}
	}
	return ir.Event{}, false, nil
}

func joinsThread(join ir.Event, ended ir.ThreadRef) bool {
	f, ok := join.Fields.(ir.ThreadFields)
	if !ok || f.Child == "" {
		return false
	}
	child := ir.ParseThread(f.Child)
	if child.Process == "" {
		return child.Thread == ended.Thread && join.Thread.Process == ended.Process
	}
	return child.Key == ended.Key || (child.Thread == ended.Thread && child.Process == ended.Process)
}

// Message groups the SND and RCV events that carried one message over a
// directed channel. A send may be split across several receives and the
// other way round; the parts are grouped until the bytes sent equal the
// bytes received.
type Message struct {
	// ID is the first send's id when it is at least as large as the first
	// receive, otherwise the first receive's id.
	ID            string     `json:"id"`
	Channel       string     `json:"channel"`
	Sends         []ir.Event `json:"sends"`
	Receives      []ir.Event `json:"receives"`
	SentBytes     int64      `json:"sent_bytes"`
	ReceivedBytes int64      `json:"received_bytes"`
}

// Complete reports whether every byte sent was received.
func (m Message) Complete() bool {
	return len(m.Sends) > 0 && len(m.Receives) > 0 && m.SentBytes == m.ReceivedBytes
}

// Messages pairs every SND and RCV into messages. Messages are ordered by
// channel of first appearance, then by position in the channel.
func (u *Universe) Messages() []Message {
	type stream struct {
		sends, receives []ir.Event
	}
	var channels []string
	streams := make(map[string]*stream)

	for _, ev := range u.events {
		if ev.Kind != ir.KindSend && ev.Kind != ir.KindReceive {
			continue
		}
		ch := channelOf(ev)
		s, ok := streams[ch]
		if !ok {
			s = &stream{}
			streams[ch] = s
			channels = append(channels, ch)
		}
		if ev.Kind == ir.KindSend {
			s.sends = append(s.sends, ev)
		} else {
			s.receives = append(s.receives, ev)
		}
	}

	var out []Message
	for _, ch := range channels {
		out = append(out, pairStream(ch, streams[ch].sends, streams[ch].receives)...)
	}
	return out
}

// MessageParts returns the message that the SND or RCV id belongs to.
func (u *Universe) MessageParts(id string) (Message, error) {
	ev, ok := u.Event(id)
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	if ev.Kind != ir.KindSend && ev.Kind != ir.KindReceive {
		return Message{}, fmt.Errorf("event %s is %s, not %s or %s", id, ev.Kind, ir.KindSend, ir.KindReceive)
	}

	isPart := func(e ir.Event) bool { return e.ID == id }
	for _, m := range u.Messages() {
		if slices.ContainsFunc(m.Sends, isPart) || slices.ContainsFunc(m.Receives, isPart) {
			return m, nil
		}
	}
	return Message{}, fmt.Errorf("event %s is not part of any message", id)
}

// pairStream splits one channel's sends and receives into messages by
// matching byte counts. Trailing parts with no counterpart form an
// incomplete message.
func pairStream(channel string, sends, receives []ir.Event) []Message {
	var out []Message
	i, j := 0, 0
	for i < len(sends) || j < len(receives) {
		m := Message{Channel: channel}
	grow:
		for {
			needSend := len(m.Sends) == 0 || m.SentBytes < m.ReceivedBytes
			needReceive := len(m.Receives) == 0 || m.ReceivedBytes < m.SentBytes
			switch {
			case needSend && i < len(sends):
				m.Sends = append(m.Sends, sends[i])
				m.SentBytes += sizeOf(sends[i])
				i++
			case needReceive && j < len(receives):
				m.Receives = append(m.Receives, receives[j])
				m.ReceivedBytes += sizeOf(receives[j])
				j++
			default:
				break grow
			}
		}
		m.ID = messageID(m)
		out = append(out, m)
	}
	return out
}

func messageID(m Message) string {
	switch {
	case len(m.Sends) == 0:
		return m.Receives[0].ID
	case len(m.Receives) == 0:
		return m.Sends[0].ID
	case sizeOf(m.Sends[0]) >= sizeOf(m.Receives[0]):
		return m.Sends[0].ID
	}
	return m.Receives[0].ID
}

// channelOf names the directed channel src:port-dst:port of a stream event,
// falling back to the socket id when no endpoints were recorded.
func channelOf(ev ir.Event) string {
	f, ok := ev.Fields.(ir.StreamFields)
	if !ok {
		return ""
	}
	if f.Src == "" && f.Dst == "" {
		return f.Socket
	}
	return fmt.Sprintf("%s:%d-%s:%d", f.Src, f.SrcPort, f.Dst, f.DstPort)
}

func sizeOf(ev ir.Event) int64 {
	if f, ok := ev.Fields.(ir.StreamFields); ok {
		return f.Size
	}
	return 0
}

func variableOf(ev ir.Event) string {
	if f, ok := ev.Fields.(ir.VariableFields); ok {
		return f.Variable
	}
	return ""
}

func (u *Universe) eventOfKind(id string, kind ir.Kind) (ir.Event, error) {
	ev, ok := u.Event(id)
	if !ok {
		return ir.Event{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	if ev.Kind != kind {
		return ir.Event{}, fmt.Errorf("event %s is %s, not %s", id, ev.Kind, kind)
	}
	return ev, nil
}
