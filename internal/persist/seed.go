package persist

import (
	"time"

	"github.com/kayz/promptstudio/internal/exchange"
	"github.com/kayz/promptstudio/internal/studio"
)

// Seed fills an empty store with a small sample library. It reports whether
// anything was written; a store that already holds data is left untouched.
func (s *Store) Seed() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM projects) + (SELECT COUNT(*) FROM prompts)
			+ (SELECT COUNT(*) FROM caps) + (SELECT COUNT(*) FROM templates)
	`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := importBundle(tx, sampleLibrary(s.now())); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func sampleLibrary(now time.Time) *exchange.Bundle {
	day := 24 * time.Hour
	return &exchange.Bundle{
		CAPs: []studio.CAP{
			{
				ID:        "cap-char-hero",
				Scope:     studio.ScopeCharacter,
				Signature: []string{"brave", "heroic", "cybernetic implants"},
				Forbid:    []string{"cowardly", "weak"},
				UsageHint: "Main protagonist",
			},
			{
				ID:        "cap-env-dystopia",
				Scope:     studio.ScopeEnvironment,
				Signature: []string{"dystopian city", "neon-lit rain", "flying vehicles"},
				Forbid:    []string{"sunny", "utopian"},
				Palette:   []string{"#FF00FF", "#00FFFF", "#39FF14"},
			},
		},
		Projects: []studio.Project{
			{
				ID:          "proj-1",
				Name:        "Cyberpunk Saga",
				Description: "A VEO3 short film project.",
				Tags:        []string{"sci-fi", "dystopian"},
				CreatedAt:   now.Add(-5 * day),
				UpdatedAt:   now.Add(-2 * day),
			},
			{
				ID:          "proj-2",
				Name:        "Marketing Images",
				Description: "Generates images for social media campaigns.",
				Tags:        []string{"marketing", "social-media"},
				CreatedAt:   now.Add(-10 * day),
				UpdatedAt:   now.Add(-1 * day),
			},
		},
		Prompts: []*studio.Prompt{
			{
				ID:        "p-1",
				ProjectID: "proj-1",
				Type:      studio.TypeVideo,
				Title:     "Opening Scene",
				Params: &studio.VideoParams{
					Genre:     "cyberpunk action",
					Location:  "neon-drenched canyons of a futuristic city",
					TimeOfDay: "night",
					Action:    "A high-speed chase; the hero, Jax, is on a stolen hoverbike.",
					Lighting:  "neon signage reflected in wet asphalt",
					Camera:    &studio.CameraSettings{Lens: "24mm", Movement: "tracking", Duration: "8s"},
				},
				Caps:      []string{"cap-char-hero", "cap-env-dystopia"},
				Version:   3,
				Tags:      []string{"action", "intro"},
				UpdatedAt: now.Add(-3 * time.Hour),
				Score:     &studio.Score{Clarity: 8, Constraints: 9, Continuity: 7, Risk: 4},
			},
			{
				ID:        "p-2",
				ProjectID: "proj-1",
				Type:      studio.TypeStory,
				Title:     "Jax's Backstory",
				Params: &studio.StoryParams{
					Logline: "The tragic event from Jax's past that drives him.",
					Beats:   studio.Fields{{Key: "opening", Value: "Jax loses his unit in the flooded district."}},
				},
				Caps:      []string{"cap-char-hero"},
				Version:   1,
				Tags:      []string{"exposition", "character"},
				UpdatedAt: now.Add(-1 * day),
			},
			{
				ID:        "p-3",
				ProjectID: "proj-2",
				Type:      studio.TypeImage,
				Title:     "Summer Sale Ad",
				Params: &studio.ImageParams{
					Subject:   "Sun-B-Gone 3000 on a vibrant, sunny beach",
					PostStyle: "photorealistic",
				},
				Version:   5,
				Tags:      []string{"summer", "sale"},
				UpdatedAt: now,
			},
		},
		Templates: []studio.Template{
			{
				ID:            "t-1",
				Type:          studio.TypeImage,
				Title:         "Product Showcase",
				Inputs:        []string{"product_name", "background_setting", "style"},
				Content:       "A marketing image of {{product_name}} in a {{background_setting}}. Style: {{style}}.",
				BestPractices: `Be specific with the style. Use words like "photorealistic", "cinematic", "anime", etc.`,
				Tags:          []string{"e-commerce", "marketing"},
			},
			{
				ID:      "t-2",
				Type:    studio.TypeStory,
				Title:   "Character Introduction",
				Inputs:  []string{"character_name", "key_trait"},
				Content: "Introduce a new character named {{character_name}} whose most defining trait is being {{key_trait}}.",
				Tags:    []string{"creative-writing"},
			},
		},
	}
}
