package factory

import (
	"fmt"

	"prompt-polish-be/pkg/enhance"
	"prompt-polish-be/pkg/enhance/ollama"
)

func NewProvider(providerType, modelName, baseURL string) (enhance.Provider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported enhancement provider: %s", providerType)
	}
}
