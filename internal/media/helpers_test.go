package media

import "github.com/content-agent/internal/config"

func configForTest() config.OpenAIConfig {
	return config.OpenAIConfig{ImageModel: "dall-e-3", ImageSize: "1792x1024"}
}
