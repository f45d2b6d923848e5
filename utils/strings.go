package utils

import (
	"strings"

	"github.com/llmgate/promptist/models"
)

// RewriteInstruction steers instruction-tuned models toward Promptist-style
// output.
const RewriteInstruction = `You rewrite short image descriptions into prompts preferred by Stable Diffusion v1-4.
Keep the subject, add style, lighting, medium and artist keywords separated by commas.
Reply with the rewritten prompt only, on one line, without quotes or explanations.`

// InstructionPrompt converts a formatted "<text> Rephrase:" prompt into a
// user message for an instruction-tuned model.
func InstructionPrompt(formatted string) string {
	text := strings.TrimSpace(strings.TrimSuffix(formatted, models.RephraseMarker))
	return "Rephrase: " + text
}

// CleanModelResponse strips code fences and wrapping quotes that chat models
// like to add around a one-line answer.
func CleanModelResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") && strings.HasSuffix(response, "```") && len(response) >= 6 {
		response = strings.TrimSuffix(strings.TrimPrefix(response, "```"), "```")
		// drop an optional language tag on the opening fence
		if i := strings.IndexByte(response, '\n'); i >= 0 && !strings.ContainsAny(response[:i], " ,") {
			response = response[i+1:]
		}
	}
	response = strings.TrimSpace(response)
	if len(response) >= 2 && strings.HasPrefix(response, `"`) && strings.HasSuffix(response, `"`) {
		response = response[1 : len(response)-1]
	}
	return strings.TrimSpace(response)
}
