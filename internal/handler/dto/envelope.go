// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// Envelope is the uniform response body:
// {responseCode, responseMessage, responseData}. The HTTP status code
// mirrors ResponseCode. AuthorizationToken is set on successful login
// only.
type Envelope struct {
	ResponseCode       int    `json:"responseCode"`
	ResponseMessage    string `json:"responseMessage"`
	ResponseData       any    `json:"responseData,omitempty"`
	AuthorizationToken string `json:"AuthorizationToken,omitempty"`
}

// Envelope response messages.
const (
	MessageSuccess      = "Success"
	MessageFailed       = "Failed"
	MessageAccessDenied = "Access Denied"
)

// Success builds a 200 envelope.
func Success(data any) Envelope {
	return Envelope{ResponseCode: 200, ResponseMessage: MessageSuccess, ResponseData: data}
}

// Failed builds a 404 envelope.
func Failed(data any) Envelope {
	return Envelope{ResponseCode: 404, ResponseMessage: MessageFailed, ResponseData: data}
}

// AccessDenied builds a 401 envelope.
func AccessDenied(data any) Envelope {
	return Envelope{ResponseCode: 401, ResponseMessage: MessageAccessDenied, ResponseData: data}
}
