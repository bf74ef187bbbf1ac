package main

import (
	"context"
	"testing"

	"github.com/openclaw/axon/internal/decision"
	"github.com/vinayprograms/agentkit/llm"
)

func TestParseClassification(t *testing.T) {
	cls, err := parseClassification(`{"intent": "code_generation", "entities": {"lang": "go"}, "urgency": "high", "complexity": "moderate"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cls.Intent != "code_generation" {
		t.Errorf("intent: %q", cls.Intent)
	}
	if cls.Entities["lang"] != "go" {
		t.Errorf("entities: %v", cls.Entities)
	}
	if cls.Urgency != decision.UrgencyHigh || cls.Complexity != decision.ComplexityModerate {
		t.Errorf("urgency/complexity: %s/%s", cls.Urgency, cls.Complexity)
	}
}

func TestParseClassificationFenced(t *testing.T) {
	content := "Here you go:\n```json\n{\"intent\": \"greeting\"}\n```"
	cls, err := parseClassification(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cls.Intent != "greeting" {
		t.Errorf("intent: %q", cls.Intent)
	}
	// Missing enum fields normalize to defaults.
	if cls.Urgency != decision.UrgencyMedium || cls.Complexity != decision.ComplexitySimple {
		t.Errorf("defaults not applied: %s/%s", cls.Urgency, cls.Complexity)
	}
	if cls.Entities == nil {
		t.Error("entities must never be nil")
	}
}

func TestParseClassificationRejectsGarbage(t *testing.T) {
	for _, content := range []string{"no json here", "{broken", `{"entities": {}}`} {
		if _, err := parseClassification(content); err == nil {
			t.Errorf("expected error for %q", content)
		}
	}
}

func TestLLMClassifier(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetResponse(`{"intent": "file_operation", "complexity": "simple"}`)

	c := &llmClassifier{provider: mock}
	cls, err := c.Classify(context.Background(), "list my files", decision.Context{})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if cls.Intent != "file_operation" {
		t.Errorf("intent: %q", cls.Intent)
	}
}

func TestHeuristicClassifier(t *testing.T) {
	c := heuristicClassifier{}

	tests := []struct {
		text   string
		intent string
	}{
		{"deploy the new build", "deployment_management"},
		{"download this url for me", "network_request"},
		{"write a function that sorts", "code_generation"},
		{"hello there", "reply"},
	}
	for _, tt := range tests {
		cls, err := c.Classify(context.Background(), tt.text, decision.Context{})
		if err != nil {
			t.Fatalf("heuristic must not fail: %v", err)
		}
		if cls.Intent != tt.intent {
			t.Errorf("Classify(%q) intent = %q, want %q", tt.text, cls.Intent, tt.intent)
		}
	}
}

func TestLLMGenerator(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.SetResponse("  a concise answer \n")

	g := &llmGenerator{provider: mock}
	out, err := g.Generate(context.Background(), "what is two plus two")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "a concise answer" {
		t.Errorf("unexpected output %q", out)
	}
}
