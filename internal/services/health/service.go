package health

// Service reports liveness and which model provider the process is wired to.
type Service struct {
	provider   string
	model      string
	configured bool
}

// NewService constructs a new health service.
func NewService(provider, model string, configured bool) *Service {
	return &Service{provider: provider, model: model, configured: configured}
}

// Status is the health payload.
type Status struct {
	OK            bool   `json:"ok"`
	Provider      string `json:"provider"`
	Model         string `json:"model,omitempty"`
	LLMConfigured bool   `json:"llmConfigured"`
}

// Status returns the health payload. The process is healthy even without model
// credentials; analyses then fail with a generic error.
func (s *Service) Status() Status {
	return Status{OK: true, Provider: s.provider, Model: s.model, LLMConfigured: s.configured}
}
