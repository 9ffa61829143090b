package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/codyseavey/rivals-companion/internal/metrics"
	"github.com/codyseavey/rivals-companion/internal/models"
)

const (
	geminiAPIURL  = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	geminiTimeout = 60 * time.Second

	maxChatHistory  = 10
	rateWindow      = time.Minute
	historyTailSize = 2 // prior turns included in each prompt
)

// Upstream error classes. SendMessage and CompareHeroes translate these into
// display-ready fallbacks; they never escape the gateway.
var (
	errAssistantAuth   = errors.New("gemini: invalid API key")
	errAssistantQuota  = errors.New("gemini: quota exhausted")
	errAssistantSafety = errors.New("gemini: blocked by safety filter")
)

// FavoriteHeroProvider supplies the user's favorited hero names for prompt
// enrichment. The assistant treats it as an opaque string-list source.
type FavoriteHeroProvider interface {
	GetFavoriteHeroes() ([]string, error)
}

// RosterProvider loads the hero roster the assistant uses for mention
// detection and prompt context.
type RosterProvider interface {
	GetHeroes(ctx context.Context) ([]models.Hero, error)
}

// AssistantService wraps the Gemini API behind a two-tier rate limiter and a
// bounded conversation history. Construction fails softly: without an API key
// the service runs in offline mode and serves canned replies instead of
// erroring.
type AssistantService struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client

	enabled       bool
	offlineReason string

	favorites FavoriteHeroProvider

	// Roster is loaded once at construction and read-only afterwards. A
	// failed load degrades mention detection to "no match".
	heroes []models.Hero

	contextCache *lru.Cache[string, string]

	// mu guards chatHistory and the rolling-window counter. The spacing
	// limiter has its own internal lock.
	mu          sync.Mutex
	chatHistory []models.ChatMessage
	maxHistory  int

	spacing      *rate.Limiter
	maxPerWindow int
	windowStart  time.Time
	windowCount  int
}

// NewAssistantService creates the assistant gateway. The roster is loaded
// eagerly; failure to load is logged, not fatal.
func NewAssistantService(apiKey, model string, minInterval time.Duration, requestsPerMinute int, roster RosterProvider, favorites FavoriteHeroProvider) *AssistantService {
	if minInterval <= 0 {
		minInterval = 4 * time.Second
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}

	contextCache, err := lru.New[string, string](64)
	if err != nil {
		log.Printf("Failed to create hero context cache: %v", err)
	}

	svc := &AssistantService{
		apiKey:       apiKey,
		model:        model,
		apiURL:       geminiAPIURL,
		httpClient:   &http.Client{Timeout: geminiTimeout},
		enabled:      apiKey != "",
		favorites:    favorites,
		contextCache: contextCache,
		maxHistory:   maxChatHistory,
		spacing:      rate.NewLimiter(rate.Every(minInterval), 1),
		maxPerWindow: requestsPerMinute,
	}

	if !svc.enabled {
		svc.offlineReason = "no GOOGLE_API_KEY configured"
		log.Printf("Assistant service: offline (%s)", svc.offlineReason)
	} else {
		log.Printf("Assistant service: enabled (model=%s)", model)
	}

	if roster != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		heroes, err := roster.GetHeroes(ctx)
		if err != nil {
			log.Printf("Assistant service: roster load failed, hero context disabled: %v", err)
		} else {
			svc.heroes = heroes
			log.Printf("Assistant service: loaded %d heroes for context", len(heroes))
		}
	}

	return svc
}

// IsEnabled reports whether the Gemini client is available.
func (s *AssistantService) IsEnabled() bool {
	return s.enabled
}

// waitForRateLimit applies the two-tier throttle before an upstream call:
// a rolling per-minute request cap, then a minimum inter-request spacing.
// It mitigates upstream RESOURCE_EXHAUSTED rejections; it is best-effort,
// not a guarantee.
func (s *AssistantService) waitForRateLimit(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.AssistantRateLimitWait.Observe(time.Since(start).Seconds())
	}()

	for {
		s.mu.Lock()
		now := time.Now()
		if now.Sub(s.windowStart) >= rateWindow {
			s.windowStart = now
			s.windowCount = 0
		}
		if s.windowCount < s.maxPerWindow {
			s.windowCount++
			s.mu.Unlock()
			break
		}
		wait := rateWindow - now.Sub(s.windowStart)
		s.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return s.spacing.Wait(ctx)
}

// SendMessage sends a chat message and returns a display-ready reply. It
// never returns an error: upstream failures are translated into guidance
// text and recorded as the assistant turn so the conversation stays
// coherent.
func (s *AssistantService) SendMessage(ctx context.Context, userMessage string) string {
	s.appendHistory(models.ChatRoleUser, userMessage)

	if !s.enabled {
		reply := s.offlineReply()
		s.appendHistory(models.ChatRoleAssistant, reply)
		return reply
	}

	reply, err := s.chat(ctx, userMessage)
	if err != nil {
		reply = guidanceFor(err)
		metrics.AssistantFallbacksTotal.Inc()
	}

	s.appendHistory(models.ChatRoleAssistant, reply)
	return reply
}

func (s *AssistantService) chat(ctx context.Context, userMessage string) (string, error) {
	if err := s.waitForRateLimit(ctx); err != nil {
		return "", err
	}

	enhanced := userMessage
	if hero := s.detectHeroMention(userMessage); hero != nil {
		enhanced = userMessage + "\n\n[CONTEXT]: " + s.heroContext(hero)
	}

	tail := s.historyTail(historyTailSize)
	prompt := buildChatPrompt(s.systemContext(), tail, enhanced)

	return s.generate(ctx, prompt)
}

// CompareHeroes asks Gemini for a structured comparison of two heroes. Any
// failure (offline mode, quota, parse error, missing field) falls back to a
// deterministic local comparison. It never fails from the caller's point of
// view.
func (s *AssistantService) CompareHeroes(ctx context.Context, hero1, hero2 models.Hero) *models.AIComparison {
	if !s.enabled {
		metrics.AssistantFallbacksTotal.Inc()
		return localComparison(hero1, hero2)
	}

	if err := s.waitForRateLimit(ctx); err != nil {
		metrics.AssistantFallbacksTotal.Inc()
		return localComparison(hero1, hero2)
	}

	prompt := buildComparisonPrompt(hero1, hero2, s.userContext())

	text, err := s.generate(ctx, prompt)
	if err != nil {
		log.Printf("Assistant: comparison request failed, using local fallback: %v", err)
		metrics.AssistantFallbacksTotal.Inc()
		return localComparison(hero1, hero2)
	}

	comparison, err := parseComparison(text)
	if err != nil {
		log.Printf("Assistant: comparison response invalid, using local fallback: %v", err)
		metrics.AssistantErrorsTotal.WithLabelValues("parse").Inc()
		metrics.AssistantFallbacksTotal.Inc()
		return localComparison(hero1, hero2)
	}

	return comparison
}

// AnalyzeHero returns a prose analysis of a single hero. Unknown heroes and
// upstream failures resolve to guidance text, never an error.
func (s *AssistantService) AnalyzeHero(ctx context.Context, heroName string) string {
	hero := s.findHero(heroName)
	if hero == nil {
		return fmt.Sprintf("I couldn't find %q in the roster. Could you check the spelling?", heroName)
	}

	if !s.enabled {
		return s.offlineReply()
	}

	if err := s.waitForRateLimit(ctx); err != nil {
		return guidanceFor(err)
	}

	text, err := s.generate(ctx, buildAnalyzePrompt(*hero, s.userContext()))
	if err != nil {
		metrics.AssistantFallbacksTotal.Inc()
		return guidanceFor(err)
	}
	return text
}

// SuggestComposition returns a 2-2-2 team composition suggestion built from
// the loaded roster. extra is optional caller context (map, enemy picks).
func (s *AssistantService) SuggestComposition(ctx context.Context, extra string) string {
	if !s.enabled {
		return s.offlineReply()
	}

	if err := s.waitForRateLimit(ctx); err != nil {
		return guidanceFor(err)
	}

	text, err := s.generate(ctx, buildCompositionPrompt(s.heroes, extra, s.userContext()))
	if err != nil {
		metrics.AssistantFallbacksTotal.Inc()
		return guidanceFor(err)
	}
	return text
}

// QuickSuggestions returns fixed prompt starters. Pure, no I/O.
func (s *AssistantService) QuickSuggestions() []string {
	return []string{
		"Hi Galacta! Which hero should I try next?",
		"I want to play Spider-Man",
		"What's the best team composition?",
		"Give me tips for playing Strategist",
		"I'm a beginner, where do I start?",
		"How do I improve with Duelists?",
	}
}

// History returns a copy of the conversation history.
func (s *AssistantService) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ChatMessage, len(s.chatHistory))
	copy(out, s.chatHistory)
	return out
}

// ClearHistory empties the conversation history.
func (s *AssistantService) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatHistory = nil
}

// appendHistory adds a turn, evicting the oldest entries once the cap is
// exceeded (FIFO).
func (s *AssistantService) appendHistory(role models.ChatRole, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chatHistory = append(s.chatHistory, models.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if n := len(s.chatHistory) - s.maxHistory; n > 0 {
		s.chatHistory = s.chatHistory[n:]
	}
}

// historyTail returns up to n turns preceding the current user message.
func (s *AssistantService) historyTail(n int) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Skip the user turn appended by SendMessage.
	end := len(s.chatHistory) - 1
	if end < 0 {
		end = 0
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	out := make([]models.ChatMessage, end-start)
	copy(out, s.chatHistory[start:end])
	return out
}

// detectHeroMention finds the first roster hero whose name or alias appears
// in the message, case-insensitively.
func (s *AssistantService) detectHeroMention(message string) *models.Hero {
	lower := strings.ToLower(message)
	for i := range s.heroes {
		h := &s.heroes[i]
		if h.Name != "" && strings.Contains(lower, strings.ToLower(h.Name)) {
			return h
		}
		if h.Alias != "" && strings.Contains(lower, strings.ToLower(h.Alias)) {
			return h
		}
	}
	return nil
}

// findHero looks a hero up by name or alias substring.
func (s *AssistantService) findHero(name string) *models.Hero {
	search := strings.ToLower(strings.TrimSpace(name))
	if search == "" {
		return nil
	}
	for i := range s.heroes {
		h := &s.heroes[i]
		if strings.Contains(strings.ToLower(h.Name), search) {
			return h
		}
		if h.Alias != "" && strings.Contains(strings.ToLower(h.Alias), search) {
			return h
		}
	}
	return nil
}

// heroContext returns the cached context blurb for a hero.
func (s *AssistantService) heroContext(hero *models.Hero) string {
	if s.contextCache != nil {
		if cached, ok := s.contextCache.Get(hero.ID); ok {
			return cached
		}
	}

	blurb := heroBlurb(*hero)
	if s.contextCache != nil {
		s.contextCache.Add(hero.ID, blurb)
	}
	return blurb
}

// userContext returns the favorited-heroes prompt fragment, or "".
func (s *AssistantService) userContext() string {
	if s.favorites == nil {
		return ""
	}
	heroes, err := s.favorites.GetFavoriteHeroes()
	if err != nil || len(heroes) == 0 {
		return ""
	}
	return "\n\nUSER'S FAVORITE HEROES: " + strings.Join(heroes, ", ") +
		"\n(Consider these when making recommendations)"
}

func (s *AssistantService) systemContext() string {
	return buildSystemPrompt(s.heroes, s.userContext())
}

// offlineReply picks a canned reply deterministically so offline behavior is
// testable.
func (s *AssistantService) offlineReply() string {
	s.mu.Lock()
	n := len(s.chatHistory)
	s.mu.Unlock()
	return offlineReplies[n%len(offlineReplies)]
}

// guidanceFor maps an upstream error class to user-facing guidance text.
func guidanceFor(err error) string {
	switch {
	case errors.Is(err, errAssistantAuth):
		metrics.AssistantErrorsTotal.WithLabelValues("auth").Inc()
		return "My connection to the assistant backend was rejected: the API key looks invalid. Get a new one at https://aistudio.google.com/app/apikey and restart the server."
	case errors.Is(err, errAssistantQuota):
		metrics.AssistantErrorsTotal.WithLabelValues("quota").Inc()
		return "I've hit the assistant quota for now. Wait about 60 seconds and try again."
	case errors.Is(err, errAssistantSafety):
		metrics.AssistantErrorsTotal.WithLabelValues("safety").Inc()
		return "That request was blocked by the content filter. Try rephrasing your question."
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		metrics.AssistantErrorsTotal.WithLabelValues("network").Inc()
		return "That took too long and was cancelled. Please try again."
	default:
		metrics.AssistantErrorsTotal.WithLabelValues("api").Inc()
		return "Something went wrong talking to the assistant. Please try again in a moment."
	}
}

// Gemini API types

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiAPIResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// generate makes a single text-in/text-out request to Gemini and classifies
// failures into the assistant error classes.
func (s *AssistantService) generate(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.9,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf(s.apiURL, s.model) + "?key=" + s.apiKey
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	metrics.AssistantRequestsTotal.Inc()

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		metrics.AssistantErrorsTotal.WithLabelValues("network").Inc()
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return "", err
	}

	var apiResp geminiAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		metrics.AssistantErrorsTotal.WithLabelValues("parse").Inc()
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Error != nil {
		return "", classifyAPIError(apiResp.Error.Code, apiResp.Error.Status, apiResp.Error.Message)
	}

	if apiResp.PromptFeedback != nil && apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", errAssistantSafety, apiResp.PromptFeedback.BlockReason)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	candidate := apiResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", fmt.Errorf("%w: finish reason SAFETY", errAssistantSafety)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return text.String(), nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", errAssistantAuth, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w (status %d)", errAssistantQuota, status)
	default:
		// The error payload often carries a more specific class.
		var apiResp geminiAPIResponse
		if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Error != nil {
			return classifyAPIError(apiResp.Error.Code, apiResp.Error.Status, apiResp.Error.Message)
		}
		return fmt.Errorf("API returned status %d", status)
	}
}

func classifyAPIError(code int, status, message string) error {
	switch {
	case status == "RESOURCE_EXHAUSTED" || code == http.StatusTooManyRequests || strings.Contains(message, "quota"):
		return fmt.Errorf("%w: %s", errAssistantQuota, message)
	case code == http.StatusUnauthorized || code == http.StatusForbidden || strings.Contains(message, "API key"):
		return fmt.Errorf("%w: %s", errAssistantAuth, message)
	case strings.Contains(message, "SAFETY"):
		return fmt.Errorf("%w: %s", errAssistantSafety, message)
	default:
		return fmt.Errorf("API error %d: %s", code, message)
	}
}

// parseComparison decodes the comparison JSON after stripping any markdown
// code fence and validates that all six fields are populated.
func parseComparison(text string) (*models.AIComparison, error) {
	cleaned := stripCodeFence(text)

	var comparison models.AIComparison
	if err := json.Unmarshal([]byte(cleaned), &comparison); err != nil {
		return nil, fmt.Errorf("failed to parse comparison JSON: %w", err)
	}

	if len(comparison.Hero1Pros) == 0 || len(comparison.Hero1Cons) == 0 ||
		len(comparison.Hero2Pros) == 0 || len(comparison.Hero2Cons) == 0 ||
		comparison.Verdict == "" || comparison.Recommendation == "" {
		return nil, fmt.Errorf("comparison response missing required fields")
	}

	return &comparison, nil
}

// stripCodeFence removes a wrapping ```json / ``` fence if present.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	} else {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// localComparison is the deterministic fallback comparison built purely from
// the heroes' role/difficulty/name fields. It must never fail.
func localComparison(hero1, hero2 models.Hero) *models.AIComparison {
	easier := displayName(hero1)
	if hero2.DifficultyStars < hero1.DifficultyStars {
		easier = displayName(hero2)
	}

	accessibility := "more approachable"
	if hero1.DifficultyStars > 3 {
		accessibility = "more demanding"
	}

	return &models.AIComparison{
		Hero1Pros: []string{
			fmt.Sprintf("%s with a %d/5 difficulty", hero1.Role, hero1.DifficultyStars),
			"Distinct ability kit",
			"Solid pick in the right hands",
		},
		Hero1Cons: []string{
			"Takes practice to master",
			"Relies on team support",
			"Vulnerable in specific matchups",
		},
		Hero2Pros: []string{
			fmt.Sprintf("%s with a %d/5 difficulty", hero2.Role, hero2.DifficultyStars),
			"Different playstyle to explore",
			"Flexible tactical options",
		},
		Hero2Cons: []string{
			"Comes with a learning curve",
			"Needs coordination to shine",
			"Not optimal in every lineup",
		},
		Verdict: fmt.Sprintf("Both are strong picks. %s is %s to pick up.",
			displayName(hero1), accessibility),
		Recommendation: fmt.Sprintf("Start with %s and branch out once you're comfortable. Either way you'll come out a better player.",
			easier),
	}
}

func displayName(h models.Hero) string {
	if h.Alias != "" {
		return h.Alias
	}
	return h.Name
}

var offlineReplies = []string{
	"I'm running in offline mode right now, so I can't reach the assistant backend. Check the roster screen for hero details in the meantime.",
	"The assistant is offline (no API key configured). I can still show you heroes and stats, but live advice has to wait.",
	"No connection to the assistant backend at the moment. Try browsing hero pages for ability details instead.",
}
