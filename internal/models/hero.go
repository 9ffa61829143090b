package models

// Role is one of the three gameplay archetypes. Unrecognized roles from the
// upstream API are passed through as-is so new archetypes don't break clients.
type Role string

const (
	RoleDuelist    Role = "Duelist"
	RoleVanguard   Role = "Vanguard"
	RoleStrategist Role = "Strategist"
)

// Hero is the canonical hero record, built fresh on every gateway call.
type Hero struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Alias           string    `json:"alias,omitempty"`
	Role            Role      `json:"role"`
	Difficulty      string    `json:"difficulty,omitempty"`
	DifficultyStars int       `json:"difficulty_stars"` // always 1-5
	Description     string    `json:"description,omitempty"`
	Abilities       []Ability `json:"abilities"`
	ImageURL        string    `json:"image_url,omitempty"`
}

// Ability belongs to exactly one Hero. Cooldown is passed through unmodified
// because the upstream API returns either a number or a free-form string.
type Ability struct {
	AbilityName string `json:"ability_name"`
	Description string `json:"description"`
	Cooldown    any    `json:"cooldown,omitempty"`
}

// PlayerStats is the per-query player record. Not cached.
type PlayerStats struct {
	Username string     `json:"username"`
	Rank     string     `json:"rank,omitempty"`
	Level    int        `json:"level,omitempty"`
	MMR      int        `json:"mmr,omitempty"`
	Heroes   []HeroStat `json:"heroes"`
}

// HeroStat is one hero's entry in a player's stat sheet.
type HeroStat struct {
	Name        string  `json:"name"`
	GamesPlayed int     `json:"games_played"`
	WinRate     float64 `json:"win_rate"`
}
