package provider

// The gemini provider reuses the chat-completion client against
// Google's OpenAI-compatible endpoint.

const (
	GeminiProviderName = "gemini"

	geminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultGeminiModel  = "gemini-1.5-pro"
	geminiContextWindow = 100_000
)

func NewGeminiProvider(apiKey string, opts ...Option) (*CodexProvider, error) {
	if apiKey == "" {
		return nil, NewError(GeminiProviderName, ErrorKindUnauthenticated, nil)
	}

	options := defaultOptions(GeminiProviderName)
	options.BaseURL = geminiBaseURL
	options.Model = defaultGeminiModel
	for _, opt := range opts {
		opt(options)
	}

	return newChatCompletionProvider(GeminiProviderName, apiKey, geminiContextWindow, options), nil
}
