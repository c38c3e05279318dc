package flow

import "fmt"

// Describe turns one step into a sentence.
func Describe(step Step) string {
	switch {
	case step.Type == ActionNavigation:
		return fmt.Sprintf("Navigate to '%s'.", step.URL)
	case step.Type == ActionClick:
		return fmt.Sprintf("Click on the %q field.", FieldName(step))
	case step.Type == ActionInput && step.Value != "":
		return fmt.Sprintf("Enter '%s' in the %q field.", step.Value, FieldName(step))
	default:
		return fmt.Sprintf("Perform '%s' on the %q field.", step.Type, FieldName(step))
	}
}

// Describe returns one sentence per step, in flow order.
func (f Flow) Describe() []string {
	sentences := make([]string, 0, len(f))
	for _, step := range f {
		sentences = append(sentences, Describe(step))
	}
	return sentences
}
