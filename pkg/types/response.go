package types

// Envelope is the machine-readable result of one CLI invocation.
type Envelope struct {
	Data       any         `json:"data,omitempty"`
	Navigation *Navigation `json:"navigation,omitempty"`
	Notices    []Notice    `json:"notices,omitempty"`
	Error      *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Navigation asks the presentation layer to move to another location.
type Navigation struct {
	Location string `json:"location"`
}

// NavigateTo builds a navigation command for location.
func NavigateTo(location string) *Navigation {
	return &Navigation{Location: location}
}
