package models

import "time"

// FavoriteCategory buckets a saved advice snippet by a keyword heuristic.
type FavoriteCategory string

const (
	CategoryHeroTips    FavoriteCategory = "hero-tips"
	CategoryComposition FavoriteCategory = "composition"
	CategoryStrategy    FavoriteCategory = "strategy"
	CategoryOther       FavoriteCategory = "other"
)

// FavoriteMessage is a favorited advice snippet, persisted until deleted.
type FavoriteMessage struct {
	ID        string           `json:"id" gorm:"primaryKey"`
	Content   string           `json:"content" gorm:"not null"`
	Category  FavoriteCategory `json:"category" gorm:"index"`
	CreatedAt time.Time        `json:"timestamp"`
}

// FavoriteHero is a favorited hero name.
type FavoriteHero struct {
	ID       uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	HeroName string    `json:"hero_name" gorm:"uniqueIndex;not null"`
	AddedAt  time.Time `json:"added_at"`
}

// FavoritesStats summarizes stored favorites for the stats endpoint.
type FavoritesStats struct {
	TotalFavorites int                      `json:"total_favorites"`
	TotalHeroes    int                      `json:"total_heroes"`
	Categories     map[FavoriteCategory]int `json:"categories"`
}
