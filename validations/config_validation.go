package validations

import (
	"context"

	coreconfig "github.com/AzielCF/az-funnel/core/config"
	pkgError "github.com/AzielCF/az-funnel/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateServeConfig checks the settings the webhook server cannot start without.
func ValidateServeConfig(ctx context.Context, cfg *coreconfig.Config) error {
	wa := cfg.Whatsapp
	err := validation.ValidateStructWithContext(ctx, &wa,
		validation.Field(&wa.VerifyToken, validation.Required),
		validation.Field(&wa.AccessToken, validation.Required),
		validation.Field(&wa.PhoneNumberID, validation.Required, is.Digit),
		validation.Field(&wa.GraphBaseURL, validation.Required, is.URL),
		validation.Field(&wa.GraphVersion, validation.Required),
		validation.Field(&wa.HTTPTimeout, validation.Required, validation.Min(1)),
		validation.Field(&wa.MaxVideoSize, validation.Required, validation.Min(int64(1))),
	)
	if err != nil {
		return pkgError.ValidationError("whatsapp: " + err.Error())
	}

	media := cfg.Media
	err = validation.ValidateStructWithContext(ctx, &media,
		validation.Field(&media.ImageURL, is.URL),
		validation.Field(&media.VideoURL, is.URL),
		validation.Field(&media.CacheTTL, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return pkgError.ValidationError("media: " + err.Error())
	}

	conv := cfg.Conversation
	err = validation.ValidateStructWithContext(ctx, &conv,
		validation.Field(&conv.PacingDelay, validation.Min(0)),
	)
	if err != nil {
		return pkgError.ValidationError("conversation: " + err.Error())
	}

	pool := cfg.WorkerPool
	if cfg.Conversation.Async {
		err = validation.ValidateStructWithContext(ctx, &pool,
			validation.Field(&pool.Size, validation.Min(1)),
			validation.Field(&pool.QueueSize, validation.Min(1)),
		)
		if err != nil {
			return pkgError.ValidationError("worker pool: " + err.Error())
		}
	}

	return nil
}
