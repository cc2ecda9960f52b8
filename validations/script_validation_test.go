package validations

import (
	"context"
	"strings"
	"testing"

	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	domainMessage "github.com/AzielCF/az-funnel/domains/message"
	pkgError "github.com/AzielCF/az-funnel/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menu(buttons ...domainMessage.ReplyButton) domainConversation.Action {
	return domainConversation.Action{Type: domainConversation.ActionButtons, Body: "pick one", Buttons: buttons}
}

func validScript() *domainConversation.Script {
	return &domainConversation.Script{
		Name: "test",
		Greeting: []domainConversation.Action{
			{Type: domainConversation.ActionImage, Link: "https://cdn.example.com/menu.jpeg"},
			{Type: domainConversation.ActionPause},
			menu(domainMessage.ReplyButton{ID: "A", Title: "A"}, domainMessage.ReplyButton{ID: "B", Title: "B"}),
		},
		Replies: map[string][]domainConversation.Action{
			"A": {{Type: domainConversation.ActionVideo, Upload: true}},
			"B": {{Type: domainConversation.ActionText, Body: "prices"}},
		},
	}
}

var withVideo = MediaFallback{VideoURL: "https://cdn.example.com/v.mp4"}

func TestValidateScript_OK(t *testing.T) {
	require.NoError(t, ValidateScript(context.Background(), validScript(), withVideo))
}

func TestValidateScript_Nil(t *testing.T) {
	assert.Error(t, ValidateScript(context.Background(), nil, withVideo))
}

func TestValidateScript_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *domainConversation.Script)
		fallback MediaFallback
		contains string
	}{
		{
			name:     "empty greeting",
			mutate:   func(s *domainConversation.Script) { s.Greeting = nil },
			fallback: withVideo,
			contains: "greeting",
		},
		{
			name:     "video without link or fallback",
			mutate:   func(s *domainConversation.Script) {},
			fallback: MediaFallback{},
			contains: "link",
		},
		{
			name: "one button",
			mutate: func(s *domainConversation.Script) {
				s.Greeting[2] = menu(domainMessage.ReplyButton{ID: "A", Title: "A"})
			},
			fallback: withVideo,
			contains: "buttons",
		},
		{
			name: "four buttons",
			mutate: func(s *domainConversation.Script) {
				s.Greeting[2] = menu(
					domainMessage.ReplyButton{ID: "1", Title: "1"},
					domainMessage.ReplyButton{ID: "2", Title: "2"},
					domainMessage.ReplyButton{ID: "3", Title: "3"},
					domainMessage.ReplyButton{ID: "4", Title: "4"},
				)
			},
			fallback: withVideo,
			contains: "buttons",
		},
		{
			name: "duplicate button ids",
			mutate: func(s *domainConversation.Script) {
				s.Greeting[2] = menu(domainMessage.ReplyButton{ID: "A", Title: "x"}, domainMessage.ReplyButton{ID: "A", Title: "y"})
			},
			fallback: withVideo,
			contains: "duplicate",
		},
		{
			name: "long title",
			mutate: func(s *domainConversation.Script) {
				s.Greeting[2] = menu(
					domainMessage.ReplyButton{ID: "A", Title: strings.Repeat("x", 21)},
					domainMessage.ReplyButton{ID: "B", Title: "B"},
				)
			},
			fallback: withVideo,
			contains: "button 0",
		},
		{
			name:     "empty text",
			mutate:   func(s *domainConversation.Script) { s.Replies["B"][0].Body = "" },
			fallback: withVideo,
			contains: "body",
		},
		{
			name:     "unknown action",
			mutate:   func(s *domainConversation.Script) { s.Replies["B"][0].Type = "sticker" },
			fallback: withVideo,
			contains: "type",
		},
		{
			name:     "empty reply id",
			mutate:   func(s *domainConversation.Script) { s.Replies[""] = []domainConversation.Action{{Type: domainConversation.ActionPause}} },
			fallback: withVideo,
			contains: "replies",
		},
		{
			name:     "reply without actions",
			mutate:   func(s *domainConversation.Script) { s.Replies["C"] = nil },
			fallback: withVideo,
			contains: "no actions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScript()
			tt.mutate(s)
			err := ValidateScript(context.Background(), s, tt.fallback)
			require.Error(t, err)
			var vErr pkgError.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestUnansweredButtons(t *testing.T) {
	s := validScript()
	assert.Empty(t, UnansweredButtons(s))

	delete(s.Replies, "B")
	assert.Equal(t, []string{"B"}, UnansweredButtons(s))
}
