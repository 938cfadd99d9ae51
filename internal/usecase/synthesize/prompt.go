package synthesize

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/namedex/internal/domain/fragment"
)

// insufficientGroundingAnswer is returned without a model call when retrieval
// produced no context.
const insufficientGroundingAnswer = "The knowledge base does not contain enough information " +
	"to answer this question. Please consult the naming convention maintainers or rephrase " +
	"the question with different terms."

// buildSystemPrompt pairs the grounding instruction with the assembled
// context. The model must answer only from the supplied fragments, cite them
// with [doc:<id>] markers, and say so when the context is insufficient.
func buildSystemPrompt(asm *fragment.Assembled) string {
	var b strings.Builder
	b.WriteString(`You are an expert on this organization's coding naming conventions, terminology, and abbreviation standards.

Rules you must follow:
1. Answer ONLY from the context documents below. Never invent rules, terms, or abbreviations that are not in the context.
2. If the context does not contain enough information to answer, say so explicitly instead of guessing.
3. When generating a new name, briefly explain which rule applies (e.g. snake_case, camelCase, verb-first).
4. Prefer English terms and abbreviations found in the glossary entries when translating Korean terms.
5. After every statement taken from a context document, cite it with its marker, e.g. [doc:rule-001].

Context documents:
`)
	for i := range asm.Fragments() {
		f := &asm.Fragments()[i]
		fmt.Fprintf(&b, "---\n[doc:%s] %s\n", f.DocID(), f.Excerpt())
	}
	b.WriteString("---\n")
	return b.String()
}
