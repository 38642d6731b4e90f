package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// EventKind tags an Event variant.
type EventKind string

const (
	// KindPublished marks a record created by Publish.
	KindPublished EventKind = "published"

	// KindUpdated marks a record replaced by Amend.
	KindUpdated EventKind = "updated"
)

// Event is a sealed sum type: Published or Updated.
type Event interface {
	Kind() EventKind
	Fields() Payload
	isEvent()
}

// Payload is the data every event carries.
type Payload struct {
	Tester   []byte
	Key      Key
	Positive bool
}

// Published is emitted once per successful Publish.
type Published struct{ Payload }

// Kind implements Event.
func (Published) Kind() EventKind { return KindPublished }

// Fields implements Event.
func (e Published) Fields() Payload { return e.Payload }

func (Published) isEvent() {}

// Updated is emitted once per successful Amend.
type Updated struct{ Payload }

// Kind implements Event.
func (Updated) Kind() EventKind { return KindUpdated }

// Fields implements Event.
func (e Updated) Fields() Payload { return e.Payload }

func (Updated) isEvent() {}

// Notice is the envelope delivered to a Sink.
type Notice struct {
	// ID identifies the notice for downstream de-duplication.
	ID string

	// Seq is the handler's logical clock value. Strictly increasing.
	Seq int64

	Event Event
}

// noticeJSON is the notification wire format. Tester is a display form
// only; TesterHex carries the exact label bytes.
type noticeJSON struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Kind      EventKind `json:"kind"`
	Key       string    `json:"key"`
	Tester    string    `json:"tester"`
	TesterHex *string   `json:"tester_hex"`
	Positive  bool      `json:"positive"`
}

// MarshalJSON encodes the notice in the notification wire format.
func (n Notice) MarshalJSON() ([]byte, error) {
	if n.Event == nil {
		return nil, fmt.Errorf("marshal notice %q: no event", n.ID)
	}
	p := n.Event.Fields()
	testerHex := hex.EncodeToString(p.Tester)
	return json.Marshal(noticeJSON{
		ID:        n.ID,
		Seq:       n.Seq,
		Kind:      n.Event.Kind(),
		Key:       p.Key.String(),
		Tester:    string(p.Tester),
		TesterHex: &testerHex,
		Positive:  p.Positive,
	})
}

// UnmarshalJSON decodes the notification wire format.
func (n *Notice) UnmarshalJSON(data []byte) error {
	var raw noticeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind != KindPublished && raw.Kind != KindUpdated {
		return fmt.Errorf("unknown event kind %q", raw.Kind)
	}
	key, err := ParseKey(raw.Key)
	if err != nil {
		return err
	}
	if raw.TesterHex == nil {
		return errors.New("notice: missing tester_hex")
	}
	tester, err := hex.DecodeString(*raw.TesterHex)
	if err != nil {
		return fmt.Errorf("notice: tester_hex: %w", err)
	}
	p := Payload{Tester: tester, Key: key, Positive: raw.Positive}

	var ev Event = Published{p}
	if raw.Kind == KindUpdated {
		ev = Updated{p}
	}

	*n = Notice{ID: raw.ID, Seq: raw.Seq, Event: ev}
	return nil
}
