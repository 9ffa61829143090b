package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/codyseavey/rivals-companion/internal/metrics"
	"github.com/codyseavey/rivals-companion/internal/models"
)

// ErrFavoriteNotFound is returned when deleting a favorite that does not
// exist.
var ErrFavoriteNotFound = errors.New("favorite not found")

// FavoritesService persists favorited advice snippets and hero names.
type FavoritesService struct {
	db *gorm.DB
}

// NewFavoritesService creates a favorites store backed by the given database.
func NewFavoritesService(db *gorm.DB) *FavoritesService {
	return &FavoritesService{db: db}
}

// SaveFavorite stores an advice snippet. An empty category is derived from
// the content by keyword heuristic.
func (s *FavoritesService) SaveFavorite(content string, category models.FavoriteCategory) (*models.FavoriteMessage, error) {
	if category == "" {
		category = detectCategory(content)
	}

	favorite := &models.FavoriteMessage{
		ID:        uuid.NewString(),
		Content:   content,
		Category:  category,
		CreatedAt: time.Now(),
	}

	if err := s.db.Create(favorite).Error; err != nil {
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}

	metrics.FavoritesSavedTotal.Inc()
	return favorite, nil
}

// GetFavorites returns all saved snippets, newest first.
func (s *FavoritesService) GetFavorites() ([]models.FavoriteMessage, error) {
	var favorites []models.FavoriteMessage
	if err := s.db.Order("created_at DESC").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return favorites, nil
}

// DeleteFavorite removes one snippet by id.
func (s *FavoritesService) DeleteFavorite(id string) error {
	result := s.db.Delete(&models.FavoriteMessage{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ClearFavorites removes every saved snippet.
func (s *FavoritesService) ClearFavorites() error {
	return s.db.Where("1 = 1").Delete(&models.FavoriteMessage{}).Error
}

// AddFavoriteHero favorites a hero by name. Adding a hero twice is a no-op.
func (s *FavoritesService) AddFavoriteHero(heroName string) error {
	var existing models.FavoriteHero
	err := s.db.Where("hero_name = ?", heroName).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check favorite hero: %w", err)
	}

	return s.db.Create(&models.FavoriteHero{
		HeroName: heroName,
		AddedAt:  time.Now(),
	}).Error
}

// RemoveFavoriteHero unfavorites a hero by name.
func (s *FavoritesService) RemoveFavoriteHero(heroName string) error {
	return s.db.Where("hero_name = ?", heroName).Delete(&models.FavoriteHero{}).Error
}

// ToggleFavoriteHero flips a hero's favorite state and reports the new one.
func (s *FavoritesService) ToggleFavoriteHero(heroName string) (bool, error) {
	favorite, err := s.IsHeroFavorite(heroName)
	if err != nil {
		return false, err
	}

	if favorite {
		return false, s.RemoveFavoriteHero(heroName)
	}
	return true, s.AddFavoriteHero(heroName)
}

// IsHeroFavorite reports whether a hero is favorited.
func (s *FavoritesService) IsHeroFavorite(heroName string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.FavoriteHero{}).Where("hero_name = ?", heroName).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check favorite hero: %w", err)
	}
	return count > 0, nil
}

// GetFavoriteHeroes returns all favorited hero names in insertion order.
func (s *FavoritesService) GetFavoriteHeroes() ([]string, error) {
	var heroes []models.FavoriteHero
	if err := s.db.Order("id ASC").Find(&heroes).Error; err != nil {
		return nil, fmt.Errorf("failed to load favorite heroes: %w", err)
	}

	names := make([]string, 0, len(heroes))
	for _, h := range heroes {
		names = append(names, h.HeroName)
	}
	return names, nil
}

// ClearFavoriteHeroes removes every favorited hero.
func (s *FavoritesService) ClearFavoriteHeroes() error {
	return s.db.Where("1 = 1").Delete(&models.FavoriteHero{}).Error
}

// Stats summarizes stored favorites.
func (s *FavoritesService) Stats() (*models.FavoritesStats, error) {
	favorites, err := s.GetFavorites()
	if err != nil {
		return nil, err
	}

	heroes, err := s.GetFavoriteHeroes()
	if err != nil {
		return nil, err
	}

	categories := make(map[models.FavoriteCategory]int)
	for _, f := range favorites {
		cat := f.Category
		if cat == "" {
			cat = models.CategoryOther
		}
		categories[cat]++
	}

	return &models.FavoritesStats{
		TotalFavorites: len(favorites),
		TotalHeroes:    len(heroes),
		Categories:     categories,
	}, nil
}

// detectCategory buckets a snippet by keyword heuristic.
func detectCategory(content string) models.FavoriteCategory {
	lower := strings.ToLower(content)

	for _, kw := range []string{"spider", "iron man", "hulk", "hero", "play as"} {
		if strings.Contains(lower, kw) {
			return models.CategoryHeroTips
		}
	}

	for _, kw := range []string{"composition", "comp", "team", "lineup"} {
		if strings.Contains(lower, kw) {
			return models.CategoryComposition
		}
	}

	for _, kw := range []string{"strategy", "tips", "advice", "how to", "win"} {
		if strings.Contains(lower, kw) {
			return models.CategoryStrategy
		}
	}

	return models.CategoryOther
}
