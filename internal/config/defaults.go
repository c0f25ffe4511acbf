package config

import "github.com/hyperjump/kioku/internal/models"

const (
	DefaultModel   = "meta-llama/llama-3.2-3b-instruct:free"
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultSystemPrompt is the shop-assistant prompt.
	DefaultSystemPrompt = `You are a helpful shop assistant chatbot. Answer customer questions about products, prices, availability, and recommendations.

IMPORTANT RULES:
1. If product information is provided in the context, use EXACT prices and details from that data
2. If a product is NOT in the database, say "I don't have specific information about that product. Please contact our store for details."
3. Be friendly, helpful, and concise
4. For product recommendations, only recommend products that are in the provided context
5. Always mention stock status when discussing products`
)

// DefaultSeedDocuments is added to an empty knowledge base when no seeds are configured.
func DefaultSeedDocuments() []*models.DocumentInput {
	return []*models.DocumentInput{{
		Title:   "About This Chatbot",
		Content: "This is an AI-powered chatbot that uses OpenRouter API to provide intelligent responses. It features a Retrieval-Augmented Generation (RAG) system that can retrieve relevant information from a knowledge base to provide more accurate and contextual answers. You can customize the AI model and system prompt in the settings.",
	}}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kioku/data/kioku.db"
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 500
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 50
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.1
	}
	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = DefaultBaseURL
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = DefaultModel
	}
	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Chat.HistoryLimit == 0 {
		cfg.Chat.HistoryLimit = 10
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.7
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 1000
	}
	if cfg.Chat.Title == "" {
		cfg.Chat.Title = "AI Chatbot"
	}
	if cfg.Chat.TimeoutSec == 0 {
		cfg.Chat.TimeoutSec = 60
	}
	if cfg.SeedDocuments == nil {
		cfg.SeedDocuments = DefaultSeedDocuments()
	}
}
