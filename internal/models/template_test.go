package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusRejected, StatusPending, true},
		{StatusApproved, StatusPending, true},

		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusPending, StatusPending, false},
		{"nonexistent", StatusApproved, false},
		{StatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	for _, status := range []string{StatusPending, StatusApproved, StatusRejected} {
		if _, ok := ValidModerationTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidModerationTransitions map", status)
		}
	}
}

func TestTemplatePromptPrefix(t *testing.T) {
	tpl := &Template{}
	if tpl.PromptPrefix() != "" {
		t.Errorf("expected empty prefix")
	}
	prefix := "You write landing pages."
	tpl.AIPromptPrefix = &prefix
	if tpl.PromptPrefix() != prefix {
		t.Errorf("PromptPrefix() = %q", tpl.PromptPrefix())
	}
}
