package model

import "time"

// ================ Config ================
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
	// Backend selects the Gemini Developer API ("gemini") or Vertex AI ("vertex").
	// Vertex is required for RAG corpus retrieval.
	Backend  string `envconfig:"GEMINI_BACKEND" default:"gemini"`
	Project  string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	Location string `envconfig:"GOOGLE_CLOUD_LOCATION" default:"us-central1"`
}

// ClassifierModelConfig drives both the intent classifier and the stage detector.
type ClassifierModelConfig struct {
	Model          string  `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens      int     `envconfig:"CLASSIFIER_MAX_TOKENS" default:"10"`
	Temperature    float32 `envconfig:"CLASSIFIER_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"CLASSIFIER_THINKING_BUDGET" default:"0"`
}

type ExtractorModelConfig struct {
	Model          string  `envconfig:"EXTRACTOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"EXTRACTOR_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"EXTRACTOR_TEMPERATURE" default:"0.2"`
	ThinkingBudget int32   `envconfig:"EXTRACTOR_THINKING_BUDGET" default:"0"`
}

type QuestionModelConfig struct {
	Model          string  `envconfig:"QUESTION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"QUESTION_MAX_TOKENS" default:"1024"`
	Temperature    float32 `envconfig:"QUESTION_TEMPERATURE" default:"0.7"`
	ThinkingBudget int32   `envconfig:"QUESTION_THINKING_BUDGET" default:"0"`
}

// PromptConfig holds values substituted into the system prompts.
type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"DM"`
	// ReferenceMonth anchors relative dates ("다음 달") during extraction.
	ReferenceMonth string `envconfig:"PROMPT_REFERENCE_MONTH" default:"2025년 4월"`
	ReferenceYear  int    `envconfig:"PROMPT_REFERENCE_YEAR" default:"2025"`
}

type SessionConfig struct {
	// Store is "memory" or "redis".
	Store string        `envconfig:"SESSION_STORE" default:"memory"`
	TTL   time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

type HTTPConfig struct {
	Addr               string        `envconfig:"HTTP_ADDR" default:":8000"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ReadTimeout        time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout    time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}
