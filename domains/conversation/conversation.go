package conversation

import (
	"context"
	"sort"

	domainMessage "github.com/AzielCF/az-funnel/domains/message"
)

type ActionType string

const (
	ActionImage   ActionType = "image"
	ActionVideo   ActionType = "video"
	ActionButtons ActionType = "buttons"
	ActionText    ActionType = "text"
	ActionPause   ActionType = "pause"
)

// Action is one outbound step of a script sequence.
type Action struct {
	Type ActionType `json:"type" mapstructure:"type"`

	// image / video
	Link    string `json:"link,omitempty" mapstructure:"link"`
	Caption string `json:"caption,omitempty" mapstructure:"caption"`
	// Upload sends the video by uploaded media id instead of by link.
	Upload bool `json:"upload,omitempty" mapstructure:"upload"`

	// buttons / text
	Header     string                      `json:"header,omitempty" mapstructure:"header"`
	Body       string                      `json:"body,omitempty" mapstructure:"body"`
	Footer     string                      `json:"footer,omitempty" mapstructure:"footer"`
	PreviewURL bool                        `json:"preview_url,omitempty" mapstructure:"preview_url"`
	Buttons    []domainMessage.ReplyButton `json:"buttons,omitempty" mapstructure:"buttons"`
}

// Script is the whole sales conversation: what to send to a new lead and
// what to send for each reply id.
type Script struct {
	Name     string              `json:"name" mapstructure:"name"`
	Greeting []Action            `json:"greeting" mapstructure:"greeting"`
	Replies  map[string][]Action `json:"replies" mapstructure:"replies"`
}

// Lookup returns the actions for a reply id.
func (s *Script) Lookup(replyID string) ([]Action, bool) {
	if s == nil || replyID == "" {
		return nil, false
	}
	actions, ok := s.Replies[replyID]
	return actions, ok
}

// OfferedButtonIDs lists every button id the script can show: greeting buttons
// first, then reply buttons by reply id.
func (s *Script) OfferedButtonIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	collect := func(actions []Action) {
		for _, a := range actions {
			for _, b := range a.Buttons {
				if _, ok := seen[b.ID]; ok {
					continue
				}
				seen[b.ID] = struct{}{}
				ids = append(ids, b.ID)
			}
		}
	}
	collect(s.Greeting)
	keys := make([]string, 0, len(s.Replies))
	for k := range s.Replies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		collect(s.Replies[k])
	}
	return ids
}

type IConversationUsecase interface {
	// Greet runs the greeting sequence for a lead's free-text message.
	Greet(ctx context.Context, to string) error
	// Reply runs the sequence bound to replyID. handled is false for unknown ids.
	Reply(ctx context.Context, to, replyID string) (handled bool, err error)
	Script() *Script
}
