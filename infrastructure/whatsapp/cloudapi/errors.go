package cloudapi

import (
	"fmt"

	"github.com/buger/jsonparser"
)

// GraphAPIError is a non-2xx answer from the Graph API.
type GraphAPIError struct {
	HTTPStatus int
	Code       int64
	Subcode    int64
	Type       string
	Message    string
	FBTraceID  string
}

func (e *GraphAPIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("graph api error: status=%d code=%d type=%s message=%s", e.HTTPStatus, e.Code, e.Type, e.Message)
	}
	return fmt.Sprintf("graph api error: status=%d message=%s", e.HTTPStatus, e.Message)
}

// parseGraphError reads the {"error":{...}} body; unknown bodies keep the raw text as message.
func parseGraphError(status int, body []byte) *GraphAPIError {
	gErr := &GraphAPIError{HTTPStatus: status}

	msg, err := jsonparser.GetString(body, "error", "message")
	if err != nil {
		gErr.Message = truncate(string(body), 512)
		return gErr
	}
	gErr.Message = msg
	gErr.Code, _ = jsonparser.GetInt(body, "error", "code")
	gErr.Subcode, _ = jsonparser.GetInt(body, "error", "error_subcode")
	gErr.Type, _ = jsonparser.GetString(body, "error", "type")
	gErr.FBTraceID, _ = jsonparser.GetString(body, "error", "fbtrace_id")
	return gErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
