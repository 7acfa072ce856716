package transport

import "encoding/json"

// Envelope is the wrapper every endpoint returns, success or error. RequestID
// echoes the X-Request-ID the context adapter assigned, so a client can quote
// it when reporting a failed order.
type Envelope struct {
	Status    string      `json:"status"`
	Code      string      `json:"code,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// WithRequestID returns a copy of the envelope carrying the request ID.
func (e Envelope) WithRequestID(id string) Envelope {
	e.RequestID = id
	return e
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
