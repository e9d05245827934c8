package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sander-arti/gamma-klone-sub003/internal/domain"
)

// DeckRepositoryPG implements domain.DeckRepository on PostgreSQL. Slides
// live in a JSONB column; appends use jsonb concatenation so they are
// atomic at the storage layer and readers never observe a torn write.
type DeckRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDeckRepository creates a deck repository backed by PostgreSQL.
func NewDeckRepository(pool *pgxpool.Pool) *DeckRepositoryPG {
	return &DeckRepositoryPG{pool: pool}
}

// Create inserts the deck shell (metadata only, empty slide list).
func (r *DeckRepositoryPG) Create(ctx context.Context, deck *domain.Deck) error {
	colors, err := json.Marshal(deck.BrandColors)
	if err != nil {
		return fmt.Errorf("encode brand colors: %w", err)
	}
	query := `
INSERT INTO decks (id, workspace_id, title, language, theme_id, brand_colors, slides)
VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb);
`
	_, err = r.pool.Exec(ctx, query,
		deck.ID,
		deck.WorkspaceID,
		deck.Title,
		deck.Language,
		nullableString(deck.ThemeID),
		colors,
	)
	return err
}

// GetByID fetches a deck, possibly mid-generation with a partial slide
// list.
func (r *DeckRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Deck, error) {
	query := `
SELECT id, workspace_id, title, language, theme_id, brand_colors, slides, created_at, updated_at
FROM decks
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var deck domain.Deck
	var themeID *string
	var colorsRaw, slidesRaw []byte
	if err := row.Scan(
		&deck.ID,
		&deck.WorkspaceID,
		&deck.Title,
		&deck.Language,
		&themeID,
		&colorsRaw,
		&slidesRaw,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	deck.ThemeID = deref(themeID)
	if len(colorsRaw) > 0 {
		if err := json.Unmarshal(colorsRaw, &deck.BrandColors); err != nil {
			return nil, fmt.Errorf("decode brand colors: %w", err)
		}
	}
	if len(slidesRaw) > 0 {
		if err := json.Unmarshal(slidesRaw, &deck.Slides); err != nil {
			return nil, fmt.Errorf("decode slides: %w", err)
		}
	}
	return &deck, nil
}

// AppendSlide atomically appends one slide to the deck's slide list.
func (r *DeckRepositoryPG) AppendSlide(ctx context.Context, deckID string, slide domain.Slide) error {
	encoded, err := json.Marshal(slide)
	if err != nil {
		return fmt.Errorf("encode slide: %w", err)
	}
	query := `
UPDATE decks
SET slides = slides || jsonb_build_array($2::jsonb), updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, deckID, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSlide replaces the slide at index; used by the image phase to
// attach generated URLs.
func (r *DeckRepositoryPG) UpdateSlide(ctx context.Context, deckID string, index int, slide domain.Slide) error {
	encoded, err := json.Marshal(slide)
	if err != nil {
		return fmt.Errorf("encode slide: %w", err)
	}
	query := `
UPDATE decks
SET slides = jsonb_set(slides, ARRAY[$2::text], $3::jsonb), updated_at = NOW()
WHERE id = $1 AND jsonb_array_length(slides) > $2;
`
	tag, err := r.pool.Exec(ctx, query, deckID, index, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.DeckRepository = (*DeckRepositoryPG)(nil)
