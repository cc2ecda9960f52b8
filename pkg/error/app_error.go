package error

import "net/http"

type ValidationError string

func (err ValidationError) Error() string {
	return string(err)
}

func (err ValidationError) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

type ForbiddenError string

func (err ForbiddenError) Error() string {
	return string(err)
}

func (err ForbiddenError) ErrCode() string {
	return "FORBIDDEN"
}

func (err ForbiddenError) StatusCode() int {
	return http.StatusForbidden
}

type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

type InternalServerError string

func (err InternalServerError) Error() string {
	return string(err)
}

func (err InternalServerError) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerError) StatusCode() int {
	return http.StatusInternalServerError
}

// WebhookError marks a delivery that could not be processed. It is only ever
// logged: webhook deliveries are acknowledged regardless.
type WebhookError string

func (err WebhookError) Error() string {
	return string(err)
}

func (err WebhookError) ErrCode() string {
	return "WEBHOOK_ERROR"
}

func (err WebhookError) StatusCode() int {
	return http.StatusOK
}
