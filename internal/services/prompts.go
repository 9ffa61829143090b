package services

import (
	"fmt"
	"strings"

	"github.com/codyseavey/rivals-companion/internal/models"
)

// personaPrompt is the assistant's standing persona and role legend.
const personaPrompt = `You are Galacta, an expert Marvel Rivals coach.

ROLES:
- Duelist: damage
- Vanguard: tank
- Strategist: support

INSTRUCTIONS:
1. Answer in 2-3 short paragraphs at most
2. Always mention a hero's role
3. Be direct and practical`

const rosterSummaryLimit = 20

// buildSystemPrompt assembles the persona, a roster summary, and the user's
// favorited heroes into the standing context for each chat turn.
func buildSystemPrompt(heroes []models.Hero, userContext string) string {
	var sb strings.Builder
	sb.WriteString(personaPrompt)

	if len(heroes) > 0 {
		summary := make([]string, 0, rosterSummaryLimit)
		for _, h := range heroes {
			if len(summary) == rosterSummaryLimit {
				break
			}
			summary = append(summary, fmt.Sprintf("%s (%s, %d/5)", h.Name, h.Role, h.DifficultyStars))
		}
		sb.WriteString("\n\nHEROES: ")
		sb.WriteString(strings.Join(summary, ", "))
	}

	sb.WriteString(userContext)
	return sb.String()
}

// buildChatPrompt combines the system context, a short window of prior
// turns, and the (possibly context-enriched) user message.
func buildChatPrompt(systemContext string, tail []models.ChatMessage, userMessage string) string {
	var sb strings.Builder
	sb.WriteString(systemContext)

	if len(tail) > 0 {
		sb.WriteString("\n\nHistory:\n")
		for _, msg := range tail {
			speaker := "User"
			if msg.Role == models.ChatRoleAssistant {
				speaker = "Galacta"
			}
			sb.WriteString(speaker)
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nUser: ")
	sb.WriteString(userMessage)
	sb.WriteString("\n\nGalacta:")
	return sb.String()
}

// heroBlurb is the short context line appended to a message that mentions a
// roster hero.
func heroBlurb(h models.Hero) string {
	abilities := "N/A"
	if len(h.Abilities) > 0 {
		names := make([]string, 0, 2)
		for _, a := range h.Abilities {
			if len(names) == 2 {
				break
			}
			names = append(names, a.AbilityName)
		}
		abilities = strings.Join(names, ", ")
	}

	return fmt.Sprintf("%s is a %s (%d/5 difficulty). %s Abilities: %s",
		h.Name, h.Role, h.DifficultyStars, truncate(h.Description, 100), abilities)
}

// buildComparisonPrompt instructs Gemini to emit only the AIComparison JSON
// object, exactly three pros and cons per hero.
func buildComparisonPrompt(hero1, hero2 models.Hero, userContext string) string {
	return fmt.Sprintf(`As Galacta, compare these two Marvel Rivals heroes:

%s

%s
%s

Respond in JSON FORMAT:
{
  "hero1_pros": ["pro1", "pro2", "pro3"],
  "hero1_cons": ["con1", "con2", "con3"],
  "hero2_pros": ["pro1", "pro2", "pro3"],
  "hero2_cons": ["con1", "con2", "con3"],
  "verdict": "Brief 1-2 sentence analysis",
  "recommendation": "Brief 1-2 sentence recommendation"
}

RULES:
- Exactly 3 pros and 3 cons per hero
- Specific and distinct points
- ONLY JSON, no markdown

ONLY valid JSON.`,
		comparisonCard(hero1), comparisonCard(hero2), userContext)
}

func comparisonCard(h models.Hero) string {
	abilities := make([]string, 0, 2)
	for _, a := range h.Abilities {
		if len(abilities) == 2 {
			break
		}
		abilities = append(abilities, a.AbilityName)
	}

	return fmt.Sprintf(`**%s**
- Role: %s
- Difficulty: %d/5
- Description: %s
- Abilities: %s`,
		displayName(h), h.Role, h.DifficultyStars,
		truncate(h.Description, 150), strings.Join(abilities, ", "))
}

// buildAnalyzePrompt requests a three-part single-hero analysis.
func buildAnalyzePrompt(h models.Hero, userContext string) string {
	var abilities strings.Builder
	for i, a := range h.Abilities {
		if i == 2 {
			break
		}
		abilities.WriteString("- ")
		abilities.WriteString(a.AbilityName)
		abilities.WriteString("\n")
	}
	if abilities.Len() == 0 {
		abilities.WriteString("N/A\n")
	}

	return fmt.Sprintf(`As Galacta, analyze the hero %s:

**Data:**
- Role: %s
- Difficulty: %d/5
- Description: %s
- Abilities:
%s%s

Give an analysis (3 paragraphs) covering:
1. What kind of player suits this hero
2. Strengths and weaknesses
3. Gameplay tips`,
		h.Name, h.Role, h.DifficultyStars,
		truncate(h.Description, 200), abilities.String(), userContext)
}

// buildCompositionPrompt asks for a balanced 2-2-2 composition built from
// per-role roster slices.
func buildCompositionPrompt(heroes []models.Hero, extra, userContext string) string {
	byRole := func(role models.Role) string {
		names := make([]string, 0, 5)
		for _, h := range heroes {
			if len(names) == 5 {
				break
			}
			if h.Role == role {
				names = append(names, h.Name)
			}
		}
		if len(names) == 0 {
			return "N/A"
		}
		return strings.Join(names, ", ")
	}

	extraSection := ""
	if extra != "" {
		extraSection = "\n**Context:** " + extra + "\n"
	}

	return fmt.Sprintf(`As Galacta, suggest a balanced team composition.

**Heroes:**
- Duelists: %s
- Vanguards: %s
- Strategists: %s
%s%s

Suggest a 2-2-2 composition explaining:
1. Why each hero
2. Synergies
3. Strategy

3 paragraphs.`,
		byRole(models.RoleDuelist), byRole(models.RoleVanguard),
		byRole(models.RoleStrategist), extraSection, userContext)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
