package ai

import (
	"strings"
	"testing"

	"github.com/simonexlue/tradelens/internal/config"
)

const validPayload = `{"what_happened":"Price swept the lows.","why_result":"Entry was against the trend.","tips":["Wait for confirmation","Respect the session bias"]}`

func TestDecodeResultPlainJSON(t *testing.T) {
	res, err := decodeResult(validPayload)
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if res.WhatHappened == "" || res.WhyResult == "" || len(res.Tips) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDecodeResultStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validPayload + "\n```"
	res, err := decodeResult(fenced)
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	if res.WhatHappened != "Price swept the lows." {
		t.Fatalf("unexpected what_happened: %q", res.WhatHappened)
	}

	bare := "```\n" + validPayload + "\n```"
	if _, err := decodeResult(bare); err != nil {
		t.Fatalf("decodeResult bare fence: %v", err)
	}
}

func TestDecodeResultRejectsIncomplete(t *testing.T) {
	bad := []string{
		`{}`,
		`{"what_happened":"x","why_result":"y"}`,
		`{"what_happened":"x","tips":["a"]}`,
		`{"why_result":"y","tips":["a"]}`,
		`not json at all`,
	}
	for _, payload := range bad {
		if _, err := decodeResult(payload); err == nil {
			t.Fatalf("decodeResult(%q) should fail", payload)
		}
	}
}

func TestBuildUserPromptFallsBackWithoutNote(t *testing.T) {
	prompt := buildUserPrompt("   ", nil)
	if !strings.Contains(prompt, "No note provided.") {
		t.Fatalf("prompt missing fallback note: %q", prompt)
	}
}

func TestBuildUserPromptIncludesMetadata(t *testing.T) {
	prompt := buildUserPrompt("shorted the open", map[string]any{"symbol": "ES", "outcome": "loss"})
	if !strings.Contains(prompt, "shorted the open") {
		t.Fatalf("prompt missing note")
	}
	if !strings.Contains(prompt, `"symbol":"ES"`) {
		t.Fatalf("prompt missing metadata: %q", prompt)
	}
}

func TestClientModelMatchesConfig(t *testing.T) {
	c := NewClient(config.AIConfig{Model: "gpt-4o-mini"})
	if got := c.Model(); got != "gpt-4o-mini" {
		t.Fatalf("Model() = %q", got)
	}
}
