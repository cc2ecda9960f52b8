package usecase

import (
	"context"
	"fmt"
	"time"

	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	domainMessage "github.com/AzielCF/az-funnel/domains/message"
	"github.com/sirupsen/logrus"
)

type ConversationOptions struct {
	PacingDelay time.Duration
	// Fallback links for image and video actions that leave Link empty.
	ImageURL string
	VideoURL string
}

type conversationService struct {
	script *domainConversation.Script
	sender domainMessage.IMessageSender
	media  domainMedia.IMediaUsecase
	opts   ConversationOptions
}

func NewConversationService(script *domainConversation.Script, sender domainMessage.IMessageSender, media domainMedia.IMediaUsecase, opts ConversationOptions) domainConversation.IConversationUsecase {
	return &conversationService{
		script: script,
		sender: sender,
		media:  media,
		opts:   opts,
	}
}

func (s *conversationService) Script() *domainConversation.Script {
	return s.script
}

func (s *conversationService) Greet(ctx context.Context, to string) error {
	return s.run(ctx, to, "greeting", s.script.Greeting)
}

func (s *conversationService) Reply(ctx context.Context, to, replyID string) (bool, error) {
	actions, ok := s.script.Lookup(replyID)
	if !ok {
		return false, nil
	}
	return true, s.run(ctx, to, replyID, actions)
}

// run executes actions in order and stops at the first failure.
func (s *conversationService) run(ctx context.Context, to, step string, actions []domainConversation.Action) error {
	for i, a := range actions {
		if err := s.perform(ctx, to, a); err != nil {
			return fmt.Errorf("%s step %d (%s): %w", step, i, a.Type, err)
		}
	}
	logrus.Debugf("[CONVERSATION] %s sent to %s (%d actions)", step, to, len(actions))
	return nil
}

func (s *conversationService) perform(ctx context.Context, to string, a domainConversation.Action) error {
	switch a.Type {
	case domainConversation.ActionPause:
		return s.pause(ctx)
	case domainConversation.ActionImage:
		return s.send(ctx, domainMessage.NewImageLink(to, orDefault(a.Link, s.opts.ImageURL), a.Caption))
	case domainConversation.ActionVideo:
		link := orDefault(a.Link, s.opts.VideoURL)
		if a.Upload {
			if s.media == nil {
				return fmt.Errorf("media delivery is not configured")
			}
			_, err := s.media.SendVideo(ctx, to, link, a.Caption)
			return err
		}
		return s.send(ctx, domainMessage.NewVideoLink(to, link, a.Caption))
	case domainConversation.ActionButtons:
		return s.send(ctx, domainMessage.NewButtons(to, a.Header, a.Body, a.Footer, a.Buttons))
	case domainConversation.ActionText:
		return s.send(ctx, domainMessage.NewText(to, a.Body, a.PreviewURL))
	default:
		return fmt.Errorf("unsupported action %q", a.Type)
	}
}

func (s *conversationService) send(ctx context.Context, msg domainMessage.OutboundMessage) error {
	_, err := s.sender.Send(ctx, msg)
	return err
}

func (s *conversationService) pause(ctx context.Context) error {
	if s.opts.PacingDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.opts.PacingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
