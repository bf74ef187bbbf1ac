package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openclaw/axon/internal/config"
	"github.com/openclaw/axon/internal/decision"
	"github.com/vinayprograms/agentkit/credentials"
	"github.com/vinayprograms/agentkit/llm"
)

// createProvider builds an LLM provider from an LLM config section.
// Returns nil (no error) when no model is configured.
func createProvider(cfg config.LLMConfig, creds *credentials.Credentials) (llm.Provider, error) {
	if cfg.Model == "" {
		return nil, nil
	}
	providerName := cfg.Provider
	if providerName == "" {
		providerName = llm.InferProviderFromModel(cfg.Model)
	}

	apiKey := cfg.GetAPIKey()
	if apiKey == "" && creds != nil {
		apiKey = creds.GetAPIKey(providerName)
	}

	provider, err := llm.NewProvider(llm.ProviderConfig{
		Provider:  providerName,
		Model:     cfg.Model,
		APIKey:    apiKey,
		MaxTokens: cfg.MaxTokens,
		BaseURL:   cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return provider, nil
}

const classifierSystemPrompt = `You classify user requests for an agent runtime.
Respond with ONLY a JSON object, no prose:
{"intent": "<label like code_generation, file_operation, deployment_management, greeting>",
 "entities": {"<name>": "<value>"},
 "urgency": "low|medium|high",
 "complexity": "simple|moderate|complex"}`

// llmClassifier asks a model to classify intent. Any failure, including
// unparseable output, surfaces as an error so the decision engine can
// apply its deterministic fallback.
type llmClassifier struct {
	provider llm.Provider
}

func (c *llmClassifier) Classify(ctx context.Context, text string, dctx decision.Context) (decision.Classification, error) {
	messages := []llm.Message{
		{Role: "system", Content: classifierSystemPrompt},
	}
	if len(dctx.RecentMessages) > 0 {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: "Recent conversation:\n" + strings.Join(dctx.RecentMessages, "\n"),
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: text})

	resp, err := c.provider.Chat(ctx, llm.ChatRequest{Messages: messages})
	if err != nil {
		return decision.Classification{}, fmt.Errorf("classifier chat: %w", err)
	}
	return parseClassification(resp.Content)
}

// parseClassification extracts the JSON object from model output, which
// may be wrapped in code fences or prose.
func parseClassification(content string) (decision.Classification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return decision.Classification{}, fmt.Errorf("no JSON object in classifier output")
	}

	var cls decision.Classification
	if err := json.Unmarshal([]byte(content[start:end+1]), &cls); err != nil {
		return decision.Classification{}, fmt.Errorf("parsing classification: %w", err)
	}
	if cls.Intent == "" {
		return decision.Classification{}, fmt.Errorf("classifier returned empty intent")
	}
	if cls.Entities == nil {
		cls.Entities = map[string]string{}
	}
	switch cls.Urgency {
	case decision.UrgencyLow, decision.UrgencyMedium, decision.UrgencyHigh:
	default:
		cls.Urgency = decision.UrgencyMedium
	}
	switch cls.Complexity {
	case decision.ComplexitySimple, decision.ComplexityModerate, decision.ComplexityComplex:
	default:
		cls.Complexity = decision.ComplexitySimple
	}
	return cls, nil
}

// heuristicClassifier is the offline classifier used when no classifier
// model is configured. Keyword matching only; it never fails.
type heuristicClassifier struct{}

var heuristicIntents = []struct {
	keywords []string
	intent   string
}{
	{[]string{"deploy", "rollout", "release"}, "deployment_management"},
	{[]string{"file", "directory", "folder"}, "file_operation"},
	{[]string{"fetch", "download", "http", "url"}, "network_request"},
	{[]string{"code", "function", "implement", "refactor"}, "code_generation"},
	{[]string{"count", "words", "echo"}, "text_task"},
	{[]string{"status", "uptime", "time", "clock"}, "system_command"},
}

func (heuristicClassifier) Classify(ctx context.Context, text string, dctx decision.Context) (decision.Classification, error) {
	lowered := strings.ToLower(text)

	intent := "reply"
	for _, h := range heuristicIntents {
		for _, kw := range h.keywords {
			if strings.Contains(lowered, kw) {
				intent = h.intent
				break
			}
		}
		if intent != "reply" {
			break
		}
	}

	complexity := decision.ComplexitySimple
	if len(strings.Fields(text)) > 30 || strings.Count(text, " and ") >= 2 {
		complexity = decision.ComplexityComplex
	}

	return decision.Classification{
		Intent:     intent,
		Entities:   map[string]string{},
		Urgency:    decision.UrgencyMedium,
		Complexity: complexity,
	}, nil
}

const generatorSystemPrompt = `You are axon, a concise assistant embedded in a terminal agent.
Answer directly and briefly.`

// llmGenerator produces direct replies via the configured model.
type llmGenerator struct {
	provider llm.Provider
}

func (g *llmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: generatorSystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generator chat: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
