package validations

import (
	"context"
	"fmt"

	domainConversation "github.com/AzielCF/az-funnel/domains/conversation"
	domainMessage "github.com/AzielCF/az-funnel/domains/message"
	pkgError "github.com/AzielCF/az-funnel/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MediaFallback is the configured media used when a script action leaves its link empty.
type MediaFallback struct {
	ImageURL string
	VideoURL string
}

// ValidateScript checks a conversation script against the Cloud API message limits.
func ValidateScript(ctx context.Context, script *domainConversation.Script, fallback MediaFallback) error {
	if script == nil {
		return pkgError.ValidationError("script: is required")
	}

	errs := validation.Errors{}
	if err := validation.Validate(script.Greeting, validation.Required); err != nil {
		errs["greeting"] = err
	}
	for i, a := range script.Greeting {
		if err := validateAction(ctx, a, fallback); err != nil {
			errs[fmt.Sprintf("greeting[%d]", i)] = err
		}
	}

	for id, actions := range script.Replies {
		if err := validation.Validate(id, validation.Required, validation.RuneLength(1, 256)); err != nil {
			errs[fmt.Sprintf("replies[%q]", id)] = err
			continue
		}
		if len(actions) == 0 {
			errs[fmt.Sprintf("replies[%q]", id)] = fmt.Errorf("has no actions")
		}
		for i, a := range actions {
			if err := validateAction(ctx, a, fallback); err != nil {
				errs[fmt.Sprintf("replies[%q][%d]", id, i)] = err
			}
		}
	}

	if err := errs.Filter(); err != nil {
		return pkgError.ValidationError("script: " + err.Error())
	}
	return nil
}

func validateAction(ctx context.Context, a domainConversation.Action, fallback MediaFallback) error {
	needsLink := (a.Type == domainConversation.ActionImage && fallback.ImageURL == "") ||
		(a.Type == domainConversation.ActionVideo && fallback.VideoURL == "")
	isButtons := a.Type == domainConversation.ActionButtons
	isText := a.Type == domainConversation.ActionText

	return validation.ValidateStructWithContext(ctx, &a,
		validation.Field(&a.Type, validation.Required, validation.In(
			domainConversation.ActionImage,
			domainConversation.ActionVideo,
			domainConversation.ActionButtons,
			domainConversation.ActionText,
			domainConversation.ActionPause,
		)),
		validation.Field(&a.Link, validation.When(needsLink, validation.Required), is.URL),
		validation.Field(&a.Caption, validation.RuneLength(0, 1024)),
		validation.Field(&a.Body,
			validation.When(isButtons, validation.Required, validation.RuneLength(1, 1024)),
			validation.When(isText, validation.Required, validation.RuneLength(1, 4096)),
		),
		validation.Field(&a.Header, validation.RuneLength(0, 60)),
		validation.Field(&a.Footer, validation.RuneLength(0, 60)),
		validation.Field(&a.Buttons,
			validation.When(isButtons, validation.Required, validation.Length(2, 3), validation.By(validateButtons)),
		),
	)
}

func validateButtons(value interface{}) error {
	buttons, _ := value.([]domainMessage.ReplyButton)
	seen := make(map[string]struct{}, len(buttons))
	for i, b := range buttons {
		err := validation.ValidateStruct(&b,
			validation.Field(&b.ID, validation.Required, validation.RuneLength(1, 256)),
			validation.Field(&b.Title, validation.Required, validation.RuneLength(1, 20)),
		)
		if err != nil {
			return fmt.Errorf("button %d: %w", i, err)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate button id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}

// UnansweredButtons lists offered button ids with no reply sequence.
func UnansweredButtons(script *domainConversation.Script) []string {
	var missing []string
	for _, id := range script.OfferedButtonIDs() {
		if _, ok := script.Lookup(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
