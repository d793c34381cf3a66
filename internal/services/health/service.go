package health

// Status is the payload of the health endpoint.
type Status struct {
	OK               bool   `json:"ok"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
	Model            string `json:"model"`
}

// Service encapsulates health-related checks.
type Service struct {
	hasAPIKey func() bool
	model     string
}

// NewService constructs a new health service. hasAPIKey reports whether the
// server holds a usable Gemini key.
func NewService(model string, hasAPIKey func() bool) *Service {
	return &Service{hasAPIKey: hasAPIKey, model: model}
}

// Status returns the current health payload. The process is healthy without
// a key because users may type one into the form.
func (s *Service) Status() Status {
	configured := false
	if s.hasAPIKey != nil {
		configured = s.hasAPIKey()
	}
	return Status{OK: true, APIKeyConfigured: configured, Model: s.model}
}
