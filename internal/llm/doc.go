// Package llm provides the semantic labeler: a language model that suggests a
// subject and category for a document. It supports OpenAI, Anthropic and
// Gemini, with retry, rate limiting, a circuit breaker and response caching.
package llm
