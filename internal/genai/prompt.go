// internal/genai/prompt.go
package genai

import (
    "fmt"
    "regexp"
    "strings"

    "github.com/pixelsolve/coldmailer-backend/internal/model"
)

const promptTemplate = `You are helping me generate a catchy, concise, and visually appealing cold email for my digital agency, PixelSolve.

You will receive one row of business data. The LOCATION field is a single value, e.g. "Austin, USA".

Your task is to generate an email addressed to the business. Replace [BUSINESS NAME] with the actual business name and [LOCATION] with the provided LOCATION field. Never output [City] or [Country] placeholders - always use the LOCATION field as provided.

Rules:
- Output ONLY the email, starting from the Subject line and ending at www.pixelsolve.co.
- The first line must start with "Subject:".
- Greet the team with "Hi [BUSINESS NAME] Team," using the actual business name.
- Reference something specific about their business (location, social presence, the observation below).
- List the key benefits as bullet points.
- Sign off as "The PixelSolve Team" followed by www.pixelsolve.co - no personal names.
- Keep the email concise (max 120 words), direct, and catchy.
- Do NOT write any extra words, commentary, or explanation before or after the email.

Now, using the data below, generate the email as specified above. Output only the email, nothing else.

Business Name: %s
Type: %s
LOCATION: %s
Email: %s
WhatsApp: %s
Has Website: %s
Instagram Presence: %s
Personalized Hook / Observation: %s
Notes: %s
`

// CorrectiveInstruction is appended to the prompt when a previous response
// still contained an unresolved placeholder token.
const CorrectiveInstruction = "\nIMPORTANT: your previous draft still contained an unfilled placeholder in square brackets. Replace every placeholder with the real value from the data above, or omit the sentence entirely. Do not output any square-bracket tokens."

var placeholderPattern = regexp.MustCompile(`\[(?:LOCATION|City|Country|BUSINESS NAME)\]`)

// HasPlaceholder reports whether generated text still carries one of the
// template tokens the prompt forbids.
func HasPlaceholder(text string) bool {
    return placeholderPattern.MatchString(text)
}

// BuildPrompt renders the generation prompt for one recipient. attempt is
// zero-based; repair attempts carry the corrective instruction.
func BuildPrompt(r model.Recipient, attempt int) string {
    p := fmt.Sprintf(promptTemplate,
        r.Name, r.BusinessType, r.Location, r.Email, r.WhatsApp,
        r.HasWebsite, r.InstagramPresence, r.Hook, r.Notes,
    )
    if attempt > 0 {
        p += CorrectiveInstruction
    }
    return strings.TrimSpace(p)
}
