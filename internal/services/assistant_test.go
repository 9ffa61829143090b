package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/rivals-companion/internal/models"
)

type stubRoster struct {
	heroes []models.Hero
	err    error
}

func (s *stubRoster) GetHeroes(ctx context.Context) ([]models.Hero, error) {
	return s.heroes, s.err
}

type stubFavorites struct {
	names []string
}

func (s *stubFavorites) GetFavoriteHeroes() ([]string, error) {
	return s.names, nil
}

func testHeroes() []models.Hero {
	return []models.Hero{
		{ID: "spider-man", Name: "Spider-Man", Alias: "Peter Parker", Role: models.RoleDuelist, DifficultyStars: 4},
		{ID: "magneto", Name: "Magneto", Role: models.RoleVanguard, DifficultyStars: 2},
		{ID: "luna-snow", Name: "Luna Snow", Role: models.RoleStrategist, DifficultyStars: 3},
	}
}

// newOnlineAssistant returns an assistant pointed at a mock Gemini endpoint
// with throttling effectively disabled.
func newOnlineAssistant(t *testing.T, handler http.HandlerFunc) *AssistantService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewAssistantService("test-key", "test-model", time.Millisecond, 1000,
		&stubRoster{heroes: testHeroes()}, nil)
	svc.apiURL = server.URL + "/%s"
	svc.spacing = rate.NewLimiter(rate.Inf, 1)
	return svc
}

func geminiReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}],"role":"model"},"finishReason":"STOP"}]}`, text)
}

func TestSendMessageOffline(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, nil)

	if svc.IsEnabled() {
		t.Fatal("service with no key should be offline")
	}

	reply := svc.SendMessage(context.Background(), "hello")
	if reply == "" {
		t.Error("offline reply should be non-empty")
	}

	history := svc.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Role != models.ChatRoleUser || history[0].Content != "hello" {
		t.Errorf("first entry should be the user turn, got %+v", history[0])
	}
	if history[1].Role != models.ChatRoleAssistant || history[1].Content != reply {
		t.Errorf("second entry should be the assistant reply, got %+v", history[1])
	}
}

func TestHistoryEviction(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, nil)

	for i := 0; i < 11; i++ {
		svc.SendMessage(context.Background(), fmt.Sprintf("message %d", i))
	}

	history := svc.History()
	if len(history) != maxChatHistory {
		t.Fatalf("history length = %d, want %d", len(history), maxChatHistory)
	}
	// 11 exchanges produce 22 turns; the surviving window starts at turn 12,
	// which is message 6's user turn.
	if history[0].Content != "message 6" {
		t.Errorf("oldest surviving entry = %q, want %q", history[0].Content, "message 6")
	}
}

func TestClearHistory(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, nil)
	svc.SendMessage(context.Background(), "hello")
	svc.ClearHistory()
	if got := svc.History(); len(got) != 0 {
		t.Errorf("history after clear = %d entries, want 0", len(got))
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, nil)
	svc.SendMessage(context.Background(), "hello")

	history := svc.History()
	history[0].Content = "mutated"
	if svc.History()[0].Content != "hello" {
		t.Error("mutating the returned slice must not affect internal history")
	}
}

func TestSendMessageOnline(t *testing.T) {
	var gotPath, gotKey string
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		fmt.Fprint(w, geminiReply("Web-slinging advice incoming!"))
	})

	reply := svc.SendMessage(context.Background(), "how do I play better?")
	if reply != "Web-slinging advice incoming!" {
		t.Errorf("reply = %q", reply)
	}
	if gotPath != "/test-model" {
		t.Errorf("request path = %q, want model interpolated", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key query param = %q", gotKey)
	}
}

func TestSendMessageUpstreamFailureReturnsGuidance(t *testing.T) {
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	reply := svc.SendMessage(context.Background(), "hello")
	if reply == "" {
		t.Fatal("failure must still yield a reply")
	}
	if !strings.Contains(reply, "API key") {
		t.Errorf("auth failure guidance should mention the API key, got %q", reply)
	}
	if len(svc.History()) != 2 {
		t.Error("guidance reply must still be recorded in history")
	}
}

func TestCompareHeroesOfflineFallback(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, nil)
	heroes := testHeroes()

	got := svc.CompareHeroes(context.Background(), heroes[0], heroes[1])
	assertComparisonComplete(t, got)
	if !strings.Contains(got.Recommendation, "Magneto") {
		t.Errorf("fallback should recommend the easier hero, got %q", got.Recommendation)
	}
}

func TestCompareHeroesUpstreamFailureFallback(t *testing.T) {
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	heroes := testHeroes()

	got := svc.CompareHeroes(context.Background(), heroes[0], heroes[1])
	assertComparisonComplete(t, got)
}

func TestCompareHeroesMalformedResponseFallback(t *testing.T) {
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiReply("this is not JSON"))
	})
	heroes := testHeroes()

	got := svc.CompareHeroes(context.Background(), heroes[0], heroes[1])
	assertComparisonComplete(t, got)
}

func TestCompareHeroesParsesStructuredReply(t *testing.T) {
	comparison := `{"hero1_pros":["mobile"],"hero1_cons":["squishy"],"hero2_pros":["tanky"],"hero2_cons":["slow"],"verdict":"both fine","recommendation":"pick Magneto"}`
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiReply("```json\n"+comparison+"\n```"))
	})
	heroes := testHeroes()

	got := svc.CompareHeroes(context.Background(), heroes[0], heroes[1])
	if got.Verdict != "both fine" || got.Recommendation != "pick Magneto" {
		t.Errorf("structured reply not parsed: %+v", got)
	}
	if len(got.Hero1Pros) != 1 || got.Hero1Pros[0] != "mobile" {
		t.Errorf("hero1_pros = %v", got.Hero1Pros)
	}
}

func assertComparisonComplete(t *testing.T, c *models.AIComparison) {
	t.Helper()
	if c == nil {
		t.Fatal("comparison must never be nil")
	}
	if len(c.Hero1Pros) == 0 || len(c.Hero1Cons) == 0 || len(c.Hero2Pros) == 0 || len(c.Hero2Cons) == 0 {
		t.Errorf("comparison has empty pros/cons lists: %+v", c)
	}
	if c.Verdict == "" || c.Recommendation == "" {
		t.Errorf("comparison missing verdict or recommendation: %+v", c)
	}
}

func TestAnalyzeHeroUnknown(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000,
		&stubRoster{heroes: testHeroes()}, nil)

	reply := svc.AnalyzeHero(context.Background(), "Galactus")
	if !strings.Contains(reply, "Galactus") {
		t.Errorf("unknown hero reply should echo the name, got %q", reply)
	}
}

func TestAnalyzeHeroOnline(t *testing.T) {
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiReply("Magneto controls space well."))
	})

	reply := svc.AnalyzeHero(context.Background(), "magneto")
	if reply != "Magneto controls space well." {
		t.Errorf("reply = %q", reply)
	}
}

func TestQuickSuggestions(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, nil)

	got := svc.QuickSuggestions()
	if len(got) != 6 {
		t.Fatalf("got %d suggestions, want 6", len(got))
	}
	for i, s := range got {
		if s == "" {
			t.Errorf("suggestion %d is empty", i)
		}
	}
}

func TestDetectHeroMention(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000,
		&stubRoster{heroes: testHeroes()}, nil)

	tests := []struct {
		message string
		want    string
	}{
		{"I want to play SPIDER-MAN today", "Spider-Man"},
		{"tips for peter parker please", "Spider-Man"},
		{"is luna snow good?", "Luna Snow"},
		{"what about wolverine", ""},
		{"", ""},
	}

	for _, tt := range tests {
		hero := svc.detectHeroMention(tt.message)
		got := ""
		if hero != nil {
			got = hero.Name
		}
		if got != tt.want {
			t.Errorf("detectHeroMention(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	svc := NewAssistantService("key", "test-model", time.Millisecond, 2, nil, nil)
	svc.spacing = rate.NewLimiter(rate.Inf, 1)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := svc.waitForRateLimit(ctx); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	// Window full; age it out and the next call must pass immediately.
	svc.mu.Lock()
	svc.windowStart = time.Now().Add(-rateWindow)
	svc.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- svc.waitForRateLimit(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("post-reset call failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("post-reset call blocked")
	}
}

func TestRateLimitFullWindowHonorsCancellation(t *testing.T) {
	svc := NewAssistantService("key", "test-model", time.Millisecond, 1, nil, nil)
	svc.spacing = rate.NewLimiter(rate.Inf, 1)

	if err := svc.waitForRateLimit(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := svc.waitForRateLimit(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("blocked call should surface the context error, got %v", err)
	}
}

func TestRateLimitSpacing(t *testing.T) {
	svc := NewAssistantService("key", "test-model", 100*time.Millisecond, 1000, nil, nil)

	ctx := context.Background()
	if err := svc.waitForRateLimit(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}

	start := time.Now()
	if err := svc.waitForRateLimit(ctx); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second call returned after %v, expected spacing delay", elapsed)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseComparisonMissingFields(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "hello there"},
		{"empty object", "{}"},
		{"missing verdict", `{"hero1_pros":["a"],"hero1_cons":["b"],"hero2_pros":["c"],"hero2_cons":["d"],"recommendation":"r"}`},
		{"empty list", `{"hero1_pros":[],"hero1_cons":["b"],"hero2_pros":["c"],"hero2_cons":["d"],"verdict":"v","recommendation":"r"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseComparison(tt.in); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		status  string
		message string
		want    error
	}{
		{"resource exhausted", 429, "RESOURCE_EXHAUSTED", "rate limit", errAssistantQuota},
		{"quota in message", 400, "INVALID_ARGUMENT", "quota exceeded for project", errAssistantQuota},
		{"bad key", 400, "INVALID_ARGUMENT", "API key not valid", errAssistantAuth},
		{"forbidden", 403, "PERMISSION_DENIED", "denied", errAssistantAuth},
		{"safety", 400, "INVALID_ARGUMENT", "blocked: SAFETY", errAssistantSafety},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyAPIError(tt.code, tt.status, tt.message)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want class %v", err, tt.want)
			}
		})
	}
}

func TestGenerateSafetyBlock(t *testing.T) {
	svc := newOnlineAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[],"role":"model"},"finishReason":"SAFETY"}]}`)
	})

	_, err := svc.generate(context.Background(), "prompt")
	if !errors.Is(err, errAssistantSafety) {
		t.Errorf("got %v, want safety class", err)
	}
}

func TestUserContextIncludesFavorites(t *testing.T) {
	svc := NewAssistantService("", "test-model", time.Millisecond, 1000,
		nil, &stubFavorites{names: []string{"Spider-Man", "Magneto"}})

	ctx := svc.userContext()
	if !strings.Contains(ctx, "Spider-Man, Magneto") {
		t.Errorf("user context missing favorites: %q", ctx)
	}

	empty := NewAssistantService("", "test-model", time.Millisecond, 1000, nil, &stubFavorites{})
	if got := empty.userContext(); got != "" {
		t.Errorf("no favorites should yield empty context, got %q", got)
	}
}
