package utils

// ResponseData is the JSON envelope returned by every /api endpoint.
type ResponseData struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}
