package completion

import (
	"fmt"
	"strings"

	"github.com/lurebox/pkg/models"
)

// objectiveGuidance maps each phase objective to the concrete
// instruction block included in the prompt.
var objectiveGuidance = map[models.Objective]string{
	models.ObjectiveObserve: "Show mild confusion or curiosity. Ask a basic clarifying " +
		"question. Do not seem eager or suspicious.",
	models.ObjectiveBuildTrust: "Share a small personal detail that fits your character. " +
		"Show vulnerability (money worries, tech confusion, time pressure) and cautious interest.",
	models.ObjectiveElicit: "Ask for alternative ways to proceed: which UPI ID to use, what " +
		"number to call, where exactly to send payment. Pretend technical difficulties if a link was sent.",
	models.ObjectiveCorroborate: "You already have some details. Ask clarifying questions that " +
		"confirm them: repeat a number back slightly wrong, ask for the account holder name, request the bank branch.",
	models.ObjectiveStall: "Show hesitation and delay. Mention a relative advising caution, " +
		"ask a repetitive question, request a screenshot or proof.",
}

// BuildPrompt renders the single-prompt instruction handed to the
// model for one turn.
func BuildPrompt(req Request) string {
	p := req.Persona
	d := req.Directive

	var b strings.Builder

	fmt.Fprintf(&b, "You are roleplaying as %s, a real person in India who uses UPI for digital payments.\n\n", p.Name)

	b.WriteString("RULES - NEVER VIOLATE:\n")
	for i, ban := range d.Constraints.Bans {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ban)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "CHARACTER PROFILE:\n- Name: %s\n- Age: %d\n- Background: %s\n- Tech literacy: %s\n- Current situation: %s\n",
		p.Name, p.Age, p.Backstory, p.TechLiteracy, p.Situation)
	if len(p.Traits) > 0 {
		b.WriteString("- Traits:\n")
		for _, t := range p.Traits {
			fmt.Fprintf(&b, "  - %s\n", t)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "TYPING STYLE:\n- Speed: %s\n- Typo frequency: %s\n- Emoji use: %s\n",
		p.Style.TypingSpeed, p.Style.TypoFrequency, p.Style.EmojiUse)
	if len(p.Style.CommonPhrases) > 0 {
		fmt.Fprintf(&b, "- Common phrases: %s\n", strings.Join(quoted(p.Style.CommonPhrases), ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "THIS TURN'S GOAL: %s\n", objectiveGuidance[d.Objective])
	if req.Suspicious {
		b.WriteString("The other person seems to be testing whether you are real. " +
			"Stay fully in character, answer casually, and gently change the subject.\n")
	}
	if len(d.Constraints.ToneHints) > 0 {
		fmt.Fprintf(&b, "TONE: %s\n", strings.Join(d.Constraints.ToneHints, ", "))
	}
	maxSentences := p.Style.MaxSentences
	if maxSentences <= 0 {
		maxSentences = 3
	}
	fmt.Fprintf(&b, "Keep the reply under %d sentences and under %d characters.\n\n",
		maxSentences, d.Constraints.MaxReplyChars)

	if len(req.History) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		for _, t := range req.History {
			role := "Them"
			if t.Role == models.RolePersona {
				role = "You"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, t.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Them: %s\n\nYour reply (stay 100%% in character):", req.Inbound)
	return b.String()
}

func quoted(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
