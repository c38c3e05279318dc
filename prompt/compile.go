package prompt

import (
	"strings"

	"github.com/hairizuanbinnoorazman/testcrafter/flow"
)

const (
	// Preamble opens every compiled prompt.
	Preamble = "You are a QA engineer. Convert the following user actions into structured test steps:"

	// Closing is the final instruction of every compiled prompt.
	Closing = "Now rewrite the actions as clear, numbered test steps. Refine wording for readability and include expected results where they can be inferred."

	actionsHeader = "User actions:"

	reasoningBlock = `Think through the flow step by step:
1. Identify the page or feature each action belongs to.
2. Note the data entered and the elements interacted with.
3. Infer the expected result after each action.`
)

// Compile builds the chain-of-thought prompt for a flow. The flow must contain at
// least one step.
func Compile(f flow.Flow) (string, error) {
	if len(f) == 0 {
		return "", flow.ErrNoValidSteps
	}

	var b strings.Builder
	b.WriteString(Preamble)
	b.WriteString("\n\n")
	b.WriteString(actionsHeader)
	b.WriteString("\n")
	for _, sentence := range f.Describe() {
		b.WriteString("- ")
		b.WriteString(sentence)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(reasoningBlock)
	b.WriteString("\n\n")
	b.WriteString(Closing)

	return b.String(), nil
}
