// Package composer renders the system prompt that grounds generation in
// retrieved context. The template is a pure substitution: an empty context
// block is legal and produces the same framing.
package composer

import "fmt"

const systemTemplate = `You are an AI assistant who knows everything about Formula One.
Use the below context to augment what you know about Formula One racing.
The context will provide you with the most recent page data from wikipedia,
the official F1 website and others.
If the context doesn't include the information you need answer based on your
existing knowledge and don't mention the source of your information or
what the context does or doesn't include.
Format responses using markdown where applicable and don't return images.
-----------------
START CONTENT
%s
END CONTENT
-----------------
QUESTION: %s
-----------------`

// SystemPrompt renders the system message content from the retrieved
// context block and the literal question text.
func SystemPrompt(docContext, question string) string {
	return fmt.Sprintf(systemTemplate, docContext, question)
}
