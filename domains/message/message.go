package message

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind tags the variant carried by an OutboundMessage.
type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindInteractive Kind = "interactive"
	KindText        Kind = "text"
)

type ReplyButton struct {
	ID    string `json:"id" mapstructure:"id"`
	Title string `json:"title" mapstructure:"title"`
}

// OutboundMessage is one Cloud API message. Only the fields of its Kind are
// encoded; build it with the New* constructors.
type OutboundMessage struct {
	To      string
	Kind    Kind
	Link    string
	MediaID string
	Caption string

	Body       string
	Header     string
	Footer     string
	PreviewURL bool
	Buttons    []ReplyButton
}

func NewImageLink(to, link, caption string) OutboundMessage {
	return OutboundMessage{To: to, Kind: KindImage, Link: link, Caption: caption}
}

func NewVideoByID(to, mediaID, caption string) OutboundMessage {
	return OutboundMessage{To: to, Kind: KindVideo, MediaID: mediaID, Caption: caption}
}

func NewVideoLink(to, link, caption string) OutboundMessage {
	return OutboundMessage{To: to, Kind: KindVideo, Link: link, Caption: caption}
}

func NewButtons(to, header, body, footer string, buttons []ReplyButton) OutboundMessage {
	return OutboundMessage{To: to, Kind: KindInteractive, Header: header, Body: body, Footer: footer, Buttons: buttons}
}

func NewText(to, body string, previewURL bool) OutboundMessage {
	return OutboundMessage{To: to, Kind: KindText, Body: body, PreviewURL: previewURL}
}

type wireMedia struct {
	ID      string `json:"id,omitempty"`
	Link    string `json:"link,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type wireText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type wireTextBlock struct {
	Text string `json:"text"`
}

type wireHeader struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type wireButton struct {
	Type  string      `json:"type"`
	Reply ReplyButton `json:"reply"`
}

type wireInteractive struct {
	Type   string         `json:"type"`
	Header *wireHeader    `json:"header,omitempty"`
	Body   wireTextBlock  `json:"body"`
	Footer *wireTextBlock `json:"footer,omitempty"`
	Action struct {
		Buttons []wireButton `json:"buttons"`
	} `json:"action"`
}

type wireMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             Kind             `json:"type"`
	Image            *wireMedia       `json:"image,omitempty"`
	Video            *wireMedia       `json:"video,omitempty"`
	Text             *wireText        `json:"text,omitempty"`
	Interactive      *wireInteractive `json:"interactive,omitempty"`
}

// MarshalJSON encodes the message in the Cloud API /messages wire format.
func (m OutboundMessage) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               m.To,
		Type:             m.Kind,
	}

	switch m.Kind {
	case KindImage:
		w.Image = &wireMedia{Link: m.Link, Caption: m.Caption}
	case KindVideo:
		if m.MediaID != "" {
			w.Video = &wireMedia{ID: m.MediaID, Caption: m.Caption}
		} else {
			w.Video = &wireMedia{Link: m.Link, Caption: m.Caption}
		}
	case KindText:
		w.Text = &wireText{PreviewURL: m.PreviewURL, Body: m.Body}
	case KindInteractive:
		in := &wireInteractive{Type: "button", Body: wireTextBlock{Text: m.Body}}
		if m.Header != "" {
			in.Header = &wireHeader{Type: "text", Text: m.Header}
		}
		if m.Footer != "" {
			in.Footer = &wireTextBlock{Text: m.Footer}
		}
		in.Action.Buttons = make([]wireButton, 0, len(m.Buttons))
		for _, b := range m.Buttons {
			in.Action.Buttons = append(in.Action.Buttons, wireButton{Type: "reply", Reply: b})
		}
		w.Interactive = in
	default:
		return nil, fmt.Errorf("unsupported outbound message kind %q", m.Kind)
	}

	return json.Marshal(w)
}

// IMessageSender delivers a message and returns the platform message id.
type IMessageSender interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}
