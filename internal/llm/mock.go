package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response   string
	Err        error
	Calls      int
	LastModel  string
	LastPrompt string
}

func (m *MockClient) Generate(_ context.Context, model, prompt string) (string, error) {
	m.Calls++
	m.LastModel = model
	m.LastPrompt = prompt
	return m.Response, m.Err
}
