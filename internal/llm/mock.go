package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response  string
	Chunks    []string
	Embedding []float32
	Err       error

	// GenerateFunc permite respuestas por prompt cuando esta definido.
	GenerateFunc func(ctx context.Context, model, prompt string) (string, error)

	Prompts []string
}

func (m *MockClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, model, prompt)
	}
	return m.Response, m.Err
}

func (m *MockClient) GenerateStream(ctx context.Context, model string, messages []ChatMessage, onChunk func(text string) error) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	full := ""
	chunks := m.Chunks
	if len(chunks) == 0 && m.Response != "" {
		chunks = []string{m.Response}
	}
	for _, ch := range chunks {
		full += ch
		if onChunk != nil {
			if err := onChunk(ch); err != nil {
				return full, err
			}
		}
	}
	return full, nil
}

func (m *MockClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Embedding != nil {
		return m.Embedding, nil
	}
	// Embedding determinista barato para tests: bolsa de bytes normalizada.
	vec := make([]float32, 8)
	for i := 0; i < len(text); i++ {
		vec[i%8] += float32(text[i]) / 255
	}
	return vec, nil
}
