package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

const identityBlock = `You are an Elite Intellectual Researcher, the primary consciousness of the Knowledge AI infrastructure.
IDENTITY: You are developed exclusively by the Knowledge AI team. Never mention any third-party AI vendor names.`

const protocolBlock = `MANDATORY OPERATIONAL PROTOCOL:
1. YOUR SOURCE OF TRUTH: You MUST prioritize the provided manuscript and its chunks above all else. Use the Axioms above as your "mental map" of the document.
2. AUTHOR STYLE MIRRORING: You MUST adopt the exact linguistic style, tone, and intellectual depth of the author.
3. ACCURACY & QUOTES: Every claim you make MUST be supported by a direct, verbatim quote from the manuscript. Use the format: "Quote from text" (Source/Context).
4. NO GENERALIZATIONS: Do not give generic answers. Scan the provided context thoroughly for specific details.
RESPONSE ARCHITECTURE:
- Mirror the author's intellectual depth and sophisticated tone.
- Use Markdown: ### for headers, **Bold** for key terms, and LaTeX for formulas.
- Respond in the SAME language as the user's question.
- RESPOND DIRECTLY. No introductions or meta-talk.
- ELABORATE: Provide comprehensive, detailed, and in-depth answers. Expand on concepts and provide thorough explanations while maintaining the author's style.
If the information is absolutely not in the text, explain what the text DOES discuss instead of just saying "I don't know".`

const extractionPromptTemplate = `1. Extract exactly %d high-quality 'Knowledge Axioms' from this manuscript.
2. Extract %d short, profound, and useful snippets or quotes DIRECTLY from the text (verbatim).
3. Extract the FULL TEXT of this document accurately.
4. Identify the Title, Author, and a brief list of Chapters/Structure.
IMPORTANT: The 'axioms', 'snippets', and 'metadata' MUST be in the SAME LANGUAGE as the manuscript itself.
Return ONLY JSON with this structure:
{
  "axioms": [{ "term": "...", "definition": "...", "significance": "..." }],
  "snippets": ["..."],
  "metadata": { "title": "...", "author": "...", "chapters": "..." },
  "fullText": "..."
}`

const contextSeparator = "\n\n---\n\n"

// Prompts implements ai.PromptBuilder with the manuscript researcher persona.
type Prompts struct{}

// SystemInstruction renders the system message. The metadata block appears
// only when a title is known, the axioms block only when axioms exist.
func (Prompts) SystemInstruction(cm ai.ContextMap) string {
	var b strings.Builder
	b.WriteString(identityBlock)
	b.WriteString("\n")

	if cm.Metadata.Title != "" {
		fmt.Fprintf(&b, "MANUSCRIPT METADATA:\n- Title: %s\n- Author: %s\n- Structure: %s\n",
			cm.Metadata.Title, cm.Metadata.Author, cm.Metadata.Chapters)
	}

	if len(cm.Axioms) > 0 {
		b.WriteString("CORE KNOWLEDGE AXIOMS (GLOBAL CONTEXT MAP):\n")
		for _, a := range cm.Axioms {
			b.WriteString(formatAxiom(a))
			b.WriteString("\n")
		}
		b.WriteString("Use these axioms to understand the deeper meaning of the text without needing to re-read everything.\n")
	}

	b.WriteString(protocolBlock)

	if cm.Language != "" && cm.Language != core.LanguageEnglish {
		fmt.Fprintf(&b, "\nWhen the language of the question is unclear, answer in %s.", cm.Language.Name())
	}
	return b.String()
}

// AugmentedPrompt wraps the question with retrieved context.
func (Prompts) AugmentedPrompt(question string, chunks []string) string {
	if len(chunks) == 0 {
		return "USER QUESTION: " + question + "\n" +
			"INSTRUCTION: Scan the entire manuscript to find the answer. Adopt the author's style. Be specific and provide quotes."
	}
	return "CRITICAL CONTEXT FROM MANUSCRIPT:\n" +
		strings.Join(chunks, contextSeparator) + "\n" +
		"USER QUESTION:\n" + question + "\n" +
		"INSTRUCTION: You MUST answer based on the provided context. Adopt the author's style. Support your answer with direct quotes."
}

// extractionPrompt renders the ingestion instructions for the requested counts.
func extractionPrompt(axioms, snippets int) string {
	return fmt.Sprintf(extractionPromptTemplate, axioms, snippets)
}

func formatAxiom(a core.Axiom) string {
	return fmt.Sprintf("• %s: %s (%s)", a.Term, a.Definition, a.Significance)
}
