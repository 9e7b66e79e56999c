package llm

import "strings"

// NotDetectedMarker is what the model answers when the text is not an assignment.
const NotDetectedMarker = "ASSIGNMENT NOT DETECTED"

// SystemPrompt is sent unchanged with every estimate.
const SystemPrompt = "You estimate how long school assignments take. " +
	"You will receive the text of an assignment that was converted from a scan or photo, and possibly custom instructions from the student. " +
	"Reply with ONLY a plain integer: the number of minutes it would take a student to complete the assignment. " +
	"Do not add units, words or punctuation. " +
	"If the text does not look like an assignment, reply exactly: " + NotDetectedMarker + ". " +
	"Custom instructions can change the scope of the work (for example, the student only has to do the even-numbered problems); take them into account. " +
	"Assume an average-paced student and be lenient with your estimate. " +
	"Never include line breaks in your reply."

const noInstructions = "None"

// BuildPrompt returns the system and user messages for one estimate.
// The extracted text and instructions are embedded verbatim.
func BuildPrompt(text, customInstructions string) (system, user string) {
	instr := customInstructions
	if strings.TrimSpace(instr) == "" {
		instr = noInstructions
	}
	var b strings.Builder
	b.Grow(len(text) + len(instr) + 48)
	b.WriteString("ASSIGNMENT:\n")
	b.WriteString(text)
	b.WriteString("\nCUSTOM INSTRUCTIONS:\n")
	b.WriteString(instr)
	return SystemPrompt, b.String()
}
