package usecase

import (
	"context"
	"crypto/subtle"

	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	domainWebhook "github.com/AzielCF/az-funnel/domains/webhook"
	pkgError "github.com/AzielCF/az-funnel/pkg/error"
	"github.com/sirupsen/logrus"
)

const subscribeMode = "subscribe"

type webhookService struct {
	verifyToken  string
	conversation domainConversation.IConversationUsecase
}

func NewWebhookService(verifyToken string, conversation domainConversation.IConversationUsecase) domainWebhook.IWebhookUsecase {
	return &webhookService{
		verifyToken:  verifyToken,
		conversation: conversation,
	}
}

// Verify answers the subscription handshake. An unset token never matches.
func (s *webhookService) Verify(mode, token, challenge string) (string, error) {
	if s.verifyToken == "" || mode != subscribeMode {
		return "", pkgError.ForbiddenError("webhook verification failed")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.verifyToken)) != 1 {
		return "", pkgError.ForbiddenError("webhook verification failed")
	}
	logrus.Info("[WEBHOOK] subscription verified")
	return challenge, nil
}

func (s *webhookService) Handle(ctx context.Context, evt domainWebhook.InboundEvent) error {
	switch evt.Kind {
	case domainWebhook.EventStatus:
		logStatus(evt.Status)
		return nil
	case domainWebhook.EventMessage:
	default:
		return nil
	}

	from := evt.Sender()
	if from == "" {
		logrus.Debug("[WEBHOOK] message without sender ignored")
		return nil
	}

	if replyID := evt.ReplyID(); replyID != "" {
		handled, err := s.conversation.Reply(ctx, from, replyID)
		if err != nil {
			return err
		}
		if handled {
			logrus.Infof("[WEBHOOK] %s answered %s", from, replyID)
			return nil
		}
		logrus.Debugf("[WEBHOOK] unknown reply id %q from %s", replyID, from)
	}

	if evt.TextBody() != "" {
		logrus.Infof("[WEBHOOK] greeting %s (%s)", from, evt.ContactName)
		return s.conversation.Greet(ctx, from)
	}

	logrus.Debugf("[WEBHOOK] ignored %s message %s from %s", evt.Message.Type, evt.Message.ID, from)
	return nil
}

func logStatus(st *domainWebhook.Status) {
	if st == nil {
		return
	}
	entry := logrus.WithFields(logrus.Fields{
		"status":    st.Status,
		"recipient": st.RecipientID,
		"id":        st.ID,
	})
	if len(st.Errors) == 0 {
		entry.Info("[WEBHOOK] status update")
		return
	}
	for _, e := range st.Errors {
		entry.WithFields(logrus.Fields{
			"code":    e.Code,
			"title":   e.Title,
			"message": e.Message,
		}).Warn("[WEBHOOK] status error")
	}
}
