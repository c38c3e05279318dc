package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step Step
		want string
	}{
		{
			name: "navigation uses literal url",
			step: Step{Type: ActionNavigation, URL: "https://example.com/login?next=/home"},
			want: "Navigate to 'https://example.com/login?next=/home'.",
		},
		{
			name: "navigation ignores tag and xpath",
			step: Step{Type: ActionNavigation, URL: "https://example.com", Tag: "BUTTON", XPath: "//a[text()='x']"},
			want: "Navigate to 'https://example.com'.",
		},
		{
			name: "click without locator",
			step: Step{Type: ActionClick, Tag: "BUTTON"},
			want: `Click on the "Unknown" field.`,
		},
		{
			name: "click with text locator",
			step: Step{Type: ActionClick, Tag: "BUTTON", XPath: "//button[text()='Sign in']"},
			want: `Click on the "Sign in" field.`,
		},
		{
			name: "input with value",
			step: Step{Type: ActionInput, Tag: "INPUT", XPath: "//input[@name='username']", Value: "alice"},
			want: `Enter 'alice' in the "Username" field.`,
		},
		{
			name: "input with empty value",
			step: Step{Type: ActionInput, Tag: "INPUT", XPath: "//input[@name='username']"},
			want: `Perform 'input' on the "Username" field.`,
		},
		{
			name: "other action type",
			step: Step{Type: "hover", Tag: "MENU", XPath: "//li[text()='Reports']"},
			want: `Perform 'hover' on the "Reports" field.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Describe(tt.step))
		})
	}
}

func TestDescribe_Deterministic(t *testing.T) {
	t.Parallel()

	step := Step{Type: ActionInput, Tag: "INPUT", XPath: "//input[@name='pass_word']", Value: "secret"}
	first := Describe(step)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Describe(step))
	}
}

func TestFlow_Describe(t *testing.T) {
	t.Parallel()

	f := Flow{
		{Type: ActionNavigation, URL: "https://example.com"},
		{Type: ActionClick, Tag: "BUTTON"},
		{Type: ActionInput, Value: "x"},
	}

	sentences := f.Describe()
	assert.Len(t, sentences, len(f))
	assert.Equal(t, "Navigate to 'https://example.com'.", sentences[0])
	assert.Equal(t, `Enter 'x' in the "Unknown" field.`, sentences[2])
}
