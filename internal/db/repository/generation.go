package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/dreamforge-ai/dreamforge/internal/db/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type IGenerationRepository interface {
	Repository[models.Generation]
	ListRecent(ctx context.Context, limit int) ([]models.Generation, error)
	ListAll(ctx context.Context) ([]models.Generation, error)
	Search(ctx context.Context, term string) ([]models.Generation, error)
	ListByParentID(ctx context.Context, parentID int64) ([]models.Generation, error)
	MatchAnyKeyword(ctx context.Context, keywords []string) ([]models.Generation, error)
	DeleteAll(ctx context.Context) error
	Columns(ctx context.Context) ([]ColumnInfo, error)
}

// ColumnInfo describes one column of the generations table.
type ColumnInfo struct {
	Position   int    `bun:"cid" json:"position"`
	Name       string `bun:"name" json:"name"`
	Type       string `bun:"type" json:"type"`
	NotNull    int    `bun:"notnull" json:"not_null"`
	PrimaryKey int    `bun:"pk" json:"primary_key"`
}

type GenerationRepository struct {
	db *bun.DB
}

func NewGenerationRepository(db *bun.DB) IGenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Create(ctx context.Context, gen *models.Generation) (*models.Generation, error) {
	if gen == nil {
		return nil, fmt.Errorf("generation model is nil")
	}

	if err := r.db.NewInsert().Model(gen).Returning("*").Scan(ctx); err != nil {
		return nil, err
	}

	return gen, nil
}

func (r *GenerationRepository) GetByID(ctx context.Context, id int64) (*models.Generation, error) {
	var gen models.Generation
	if err := r.db.NewSelect().Model(&gen).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}

	return &gen, nil
}

func (r *GenerationRepository) ListRecent(ctx context.Context, limit int) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.NewSelect().Model(&gens).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return gens, nil
}

func (r *GenerationRepository) ListAll(ctx context.Context) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.NewSelect().Model(&gens).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return gens, nil
}

func (r *GenerationRepository) Search(ctx context.Context, term string) ([]models.Generation, error) {
	pattern := "%" + strings.ToLower(term) + "%"

	var gens []models.Generation
	err := r.db.NewSelect().Model(&gens).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(prompt) LIKE ?", pattern).
				WhereOr("lower(enhanced_prompt) LIKE ?", pattern)
		}).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return gens, nil
}

func (r *GenerationRepository) ListByParentID(ctx context.Context, parentID int64) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.NewSelect().Model(&gens).
		Where("parent_id = ?", parentID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return gens, nil
}

func (r *GenerationRepository) MatchAnyKeyword(ctx context.Context, keywords []string) ([]models.Generation, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var gens []models.Generation
	err := r.db.NewSelect().Model(&gens).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, keyword := range keywords {
				q = q.WhereOr("lower(prompt) LIKE ?", "%"+keyword+"%")
			}
			return q
		}).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return gens, nil
}

func (r *GenerationRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.NewDelete().Model((*models.Generation)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return affected, nil
}

func (r *GenerationRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.NewDelete().Model((*models.Generation)(nil)).Where("1 = 1").Exec(ctx)
	return err
}

func (r *GenerationRepository) Columns(ctx context.Context) ([]ColumnInfo, error) {
	var cols []ColumnInfo

	switch r.db.Dialect().Name() {
	case dialect.SQLite:
		if err := r.db.NewRaw("PRAGMA table_info(generations)").Scan(ctx, &cols); err != nil {
			return nil, err
		}
	case dialect.PG:
		query := `SELECT ordinal_position - 1 AS cid, column_name AS name, data_type AS type,
			CASE WHEN is_nullable = 'NO' THEN 1 ELSE 0 END AS notnull,
			CASE WHEN column_name = 'id' THEN 1 ELSE 0 END AS pk
			FROM information_schema.columns WHERE table_name = 'generations'
			ORDER BY ordinal_position`
		if err := r.db.NewRaw(query).Scan(ctx, &cols); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", r.db.Dialect().Name())
	}

	return cols, nil
}
