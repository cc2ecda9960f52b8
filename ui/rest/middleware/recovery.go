package middleware

import (
	"fmt"

	pkgError "github.com/AzielCF/az-funnel/pkg/error"
	"github.com/AzielCF/az-funnel/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a JSON error. GenericError panics keep their
// status and code.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err == nil {
				return
			}

			res := utils.ResponseData{
				Status:  500,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", err),
			}
			logrus.Errorf("[REST] panic recovered on %s %s: %v", ctx.Method(), ctx.Path(), err)

			if generic, ok := err.(pkgError.GenericError); ok {
				res.Status = generic.StatusCode()
				res.Code = generic.ErrCode()
				res.Message = generic.Error()
			}

			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
