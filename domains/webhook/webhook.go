package webhook

import "context"

// Payload is the Cloud API webhook envelope. Only the fields the responder
// reads are decoded.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
	Button      *Button      `json:"button,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *Reply `json:"button_reply,omitempty"`
	ListReply   *Reply `json:"list_reply,omitempty"`
}

type Reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Button is a quick-reply tap on a template message.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

type Status struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Timestamp   string        `json:"timestamp"`
	RecipientID string        `json:"recipient_id"`
	Errors      []StatusError `json:"errors,omitempty"`
}

type StatusError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// EventKind classifies a delivery.
type EventKind string

const (
	EventNone    EventKind = "none"
	EventStatus  EventKind = "status"
	EventMessage EventKind = "message"
)

// InboundEvent is the single status or message a delivery is reduced to.
type InboundEvent struct {
	Kind          EventKind
	PhoneNumberID string
	ContactName   string
	Message       *Message
	Status        *Status
}

// Sender returns the lead's WhatsApp id, empty for status events.
func (e InboundEvent) Sender() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.From
}

// ReplyID returns the developer-chosen id of a button, list or template
// quick-reply tap.
func (e InboundEvent) ReplyID() string {
	m := e.Message
	if m == nil {
		return ""
	}
	if m.Interactive != nil {
		if m.Interactive.ButtonReply != nil && m.Interactive.ButtonReply.ID != "" {
			return m.Interactive.ButtonReply.ID
		}
		if m.Interactive.ListReply != nil && m.Interactive.ListReply.ID != "" {
			return m.Interactive.ListReply.ID
		}
	}
	if m.Button != nil {
		return m.Button.Payload
	}
	return ""
}

// TextBody returns the free text of the message, if any.
func (e InboundEvent) TextBody() string {
	if e.Message == nil || e.Message.Text == nil {
		return ""
	}
	return e.Message.Text.Body
}

// Extract reduces the envelope to entry[0].changes[0].value and picks the
// first status, or failing that the first message.
func (p Payload) Extract() InboundEvent {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return InboundEvent{Kind: EventNone}
	}
	value := p.Entry[0].Changes[0].Value
	evt := InboundEvent{Kind: EventNone, PhoneNumberID: value.Metadata.PhoneNumberID}
	if len(value.Contacts) > 0 {
		evt.ContactName = value.Contacts[0].Profile.Name
	}

	switch {
	case len(value.Statuses) > 0:
		evt.Kind = EventStatus
		evt.Status = &value.Statuses[0]
	case len(value.Messages) > 0:
		evt.Kind = EventMessage
		evt.Message = &value.Messages[0]
	}
	return evt
}

// IWebhookUsecase is the inbound side: subscription handshake and event handling.
type IWebhookUsecase interface {
	Verify(mode, token, challenge string) (string, error)
	Handle(ctx context.Context, evt InboundEvent) error
}
