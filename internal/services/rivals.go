package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codyseavey/rivals-companion/internal/metrics"
	"github.com/codyseavey/rivals-companion/internal/models"
	"github.com/codyseavey/rivals-companion/internal/normalize"
)

const rivalsDefaultTimeout = 10 * time.Second

// ErrInvalidCredentials is returned on a 401/403 from the Marvel Rivals API.
var ErrInvalidCredentials = errors.New("invalid Marvel Rivals API key; get one at https://marvelrivalsapi.com/dashboard")

// ErrNotFound is returned when the requested upstream resource does not exist.
var ErrNotFound = errors.New("not found")

// HTTPError carries a non-2xx upstream status that is neither an auth
// failure nor a missing resource.
type HTTPError struct {
	StatusCode int
	Endpoint   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Marvel Rivals API returned status %d for %s", e.StatusCode, e.Endpoint)
}

// RivalsService handles API calls to the Marvel Rivals game-data API and
// normalizes every record it returns.
type RivalsService struct {
	client    *http.Client
	apiKey    string
	baseURL   string
	imageBase string
}

// NewRivalsService creates a new Marvel Rivals API service.
func NewRivalsService(apiKey, baseURL, imageBase string) *RivalsService {
	return &RivalsService{
		client: &http.Client{
			Timeout: rivalsDefaultTimeout,
		},
		apiKey:    apiKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		imageBase: strings.TrimSuffix(imageBase, "/"),
	}
}

// rawHero mirrors the upstream hero record across the field spellings the
// API has used. Only fields we map are listed.
type rawHero struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Alias       string       `json:"alias"`
	RealName    string       `json:"real_name"`
	Role        string       `json:"role"`
	Difficulty  string       `json:"difficulty"`
	Bio         string       `json:"bio"`
	Description string       `json:"description"`
	Abilities   []rawAbility `json:"abilities"`

	// Image field names across API versions, in resolver priority order.
	ImageSquare     string `json:"image_square"`
	ImageTransverse string `json:"image_transverse"`
	Portrait        string `json:"portrait"`
	Icon            string `json:"icon"`
	ImageURL        string `json:"imageUrl"`
	Image           string `json:"image"`
	Avatar          string `json:"avatar"`
}

type rawAbility struct {
	Name        string `json:"name"`
	AbilityName string `json:"ability_name"`
	Description string `json:"description"`
	Cooldown    any    `json:"cooldown"`
}

type rawPlayer struct {
	Username string        `json:"username"`
	Rank     string        `json:"rank"`
	Level    int           `json:"level"`
	MMR      int           `json:"mmr"`
	Heroes   []rawHeroStat `json:"heroes"`
}

type rawHeroStat struct {
	Name        string  `json:"name"`
	GamesPlayed int     `json:"gamesPlayed"`
	WinRate     float64 `json:"winRate"`
}

// GetHeroes fetches and normalizes the full hero roster. A response whose
// payload is not an array degrades to an empty roster rather than failing
// the caller.
func (s *RivalsService) GetHeroes(ctx context.Context) ([]models.Hero, error) {
	body, err := s.request(ctx, "/heroes")
	if err != nil {
		return nil, err
	}

	items, err := unwrapArray(body, "heroes", "data")
	if err != nil {
		log.Printf("Rivals API: hero list payload is not an array: %v", err)
		return []models.Hero{}, nil
	}

	heroes := make([]models.Hero, 0, len(items))
	for _, item := range items {
		var raw rawHero
		if err := json.Unmarshal(item, &raw); err != nil {
			log.Printf("Rivals API: skipping malformed hero record: %v", err)
			continue
		}
		heroes = append(heroes, s.processHero(raw))
	}

	return heroes, nil
}

// GetHero fetches a single hero by name or id. The identifier is trimmed,
// lower-cased, and percent-encoded before hitting the single-resource
// endpoint.
func (s *RivalsService) GetHero(ctx context.Context, nameOrID string) (*models.Hero, error) {
	id := strings.ToLower(strings.TrimSpace(nameOrID))
	body, err := s.request(ctx, "/heroes/hero/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	payload, err := unwrapObject(body, "hero", "data")
	if err != nil {
		return nil, fmt.Errorf("decoding hero %q: %w", id, err)
	}

	var raw rawHero
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decoding hero %q: %w", id, err)
	}

	hero := s.processHero(raw)
	return &hero, nil
}

// GetPlayerStats fetches a player's stat sheet. Player records are numeric
// and short-field, so they are passed through without the normalizer.
func (s *RivalsService) GetPlayerStats(ctx context.Context, username string) (*models.PlayerStats, error) {
	body, err := s.request(ctx, "/player/"+url.PathEscape(username))
	if err != nil {
		return nil, err
	}

	payload, err := unwrapObject(body, "player", "data")
	if err != nil {
		return nil, fmt.Errorf("decoding player %q: %w", username, err)
	}

	var raw rawPlayer
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decoding player %q: %w", username, err)
	}

	stats := &models.PlayerStats{
		Username: raw.Username,
		Rank:     raw.Rank,
		Level:    raw.Level,
		MMR:      raw.MMR,
		Heroes:   make([]models.HeroStat, 0, len(raw.Heroes)),
	}
	if stats.Username == "" {
		stats.Username = username
	}
	for _, h := range raw.Heroes {
		stats.Heroes = append(stats.Heroes, models.HeroStat{
			Name:        h.Name,
			GamesPlayed: h.GamesPlayed,
			WinRate:     h.WinRate,
		})
	}

	return stats, nil
}

// processHero maps an upstream record into the canonical Hero shape.
func (s *RivalsService) processHero(raw rawHero) models.Hero {
	abilities := make([]models.Ability, 0, len(raw.Abilities))
	for _, a := range raw.Abilities {
		name := a.Name
		if name == "" {
			name = a.AbilityName
		}
		abilities = append(abilities, models.Ability{
			AbilityName: normalize.CleanHTML(name),
			Description: normalize.CleanHTML(a.Description),
			Cooldown:    a.Cooldown,
		})
	}

	description := raw.Bio
	if description == "" {
		description = raw.Description
	}

	hero := models.Hero{
		ID:              raw.ID,
		Name:            normalize.CleanHTML(raw.Name),
		Alias:           normalize.CapitalizeName(normalize.CleanHTML(firstNonEmpty(raw.Alias, raw.RealName))),
		Role:            models.Role(raw.Role),
		Difficulty:      raw.Difficulty,
		DifficultyStars: normalize.DifficultyStars(raw.Difficulty),
		Description:     normalize.CleanHTML(description),
		Abilities:       abilities,
		ImageURL: normalize.ResolveImageURL(s.imageBase,
			raw.ImageSquare, raw.ImageTransverse, raw.Portrait,
			raw.Icon, raw.ImageURL, raw.Image, raw.Avatar),
	}

	if hero.ID == "" {
		hero.ID = hero.Name
	}

	return hero
}

// request is the shared primitive behind every gateway call: static API key
// header, typed auth/status errors, transport errors wrapped and propagated.
// No retries; the caller decides whether to retry.
func (s *RivalsService) request(ctx context.Context, endpoint string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RivalsRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, fmt.Errorf("failed to reach Marvel Rivals API: %w", err)
	}
	defer resp.Body.Close()

	metrics.RivalsRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	metrics.RivalsRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &HTTPError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
