package generations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/db/models"
	"github.com/dreamforge-ai/dreamforge/internal/db/repository"
	"github.com/dreamforge-ai/dreamforge/internal/services/blobstore"
)

// SaveFailed is the sentinel id returned when a record could not be stored.
const SaveFailed int64 = -1

const (
	LineageOriginal = "original"
	LineageEdit     = "edit"
)

// Store is the durable record of every generation. Storage errors never
// escape: each operation logs the cause and returns its documented failure
// value instead.
type Store struct {
	repo   repository.IGenerationRepository
	blobs  blobstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(repo repository.IGenerationRepository, blobs blobstore.Store, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
	}
}

type SaveParams struct {
	Prompt         string
	EnhancedPrompt string
	ImagePath      string
	ModelPath      string
	ParentID       int64
	Metadata       *Metadata
}

// Save inserts a new record with a store-assigned id and timestamp and
// returns the id, or SaveFailed on any storage error.
func (s *Store) Save(ctx context.Context, params SaveParams) int64 {
	if strings.TrimSpace(params.Prompt) == "" {
		s.logger.Error("error saving generation: prompt is empty")
		return SaveFailed
	}

	var raw json.RawMessage
	if params.Metadata != nil {
		var err error
		raw, err = json.Marshal(params.Metadata)
		if err != nil {
			s.logger.Error("error encoding generation metadata", zap.Error(err))
			return SaveFailed
		}
	}

	gen := &models.Generation{
		Prompt:         params.Prompt,
		EnhancedPrompt: params.EnhancedPrompt,
		ImagePath:      params.ImagePath,
		ModelPath:      params.ModelPath,
		ParentID:       params.ParentID,
		CreatedAt:      s.now().UTC(),
		Metadata:       raw,
	}

	created, err := s.repo.Create(ctx, gen)
	if err != nil {
		s.logger.Error("error saving generation", zap.Error(err))
		return SaveFailed
	}

	return created.ID
}

// ListRecent returns at most limit records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) []models.Generation {
	gens, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("error retrieving generations", zap.Error(err))
		return nil
	}

	return gens
}

// Search matches the term case-insensitively as a substring of prompt or
// enhanced prompt. No matches is an empty result, never an error.
func (s *Store) Search(ctx context.Context, term string) []models.Generation {
	gens, err := s.repo.Search(ctx, term)
	if err != nil {
		s.logger.Error("error searching generations", zap.String("term", term), zap.Error(err))
		return nil
	}

	return gens
}

// Get returns a single record, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) *models.Generation {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("error loading generation", zap.Int64("id", id), zap.Error(err))
		}
		return nil
	}

	return gen
}

// Delete removes the record and best-effort deletes its blobs. It reports
// whether the row existed and was removed; blob cleanup failures only log.
func (s *Store) Delete(ctx context.Context, id int64) bool {
	gen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("error deleting generation", zap.Int64("id", id), zap.Error(err))
		}
		return false
	}

	s.removeBlobs(gen)

	affected, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("error deleting generation", zap.Int64("id", id), zap.Error(err))
		return false
	}

	return affected > 0
}

// ClearAll removes every record and best-effort deletes all referenced
// blobs. It returns false only when the bulk row deletion itself fails.
func (s *Store) ClearAll(ctx context.Context) bool {
	gens, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("error clearing generations", zap.Error(err))
		return false
	}

	for i := range gens {
		s.removeBlobs(&gens[i])
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		s.logger.Error("error clearing generations", zap.Error(err))
		return false
	}

	return true
}

type LineageEntry struct {
	Type           string    `json:"type"`
	Prompt         string    `json:"prompt"`
	EnhancedPrompt string    `json:"enhanced_prompt,omitempty"`
	PreviousPrompt string    `json:"previous_prompt,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// EditLineage reconstructs the edit chain for a generation: the originating
// record first, then every edit pointing at it via parent id, in
// chronological order. Unknown ids yield an empty result.
func (s *Store) EditLineage(ctx context.Context, id int64) []LineageEntry {
	origin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("error getting edit lineage", zap.Int64("id", id), zap.Error(err))
		}
		return nil
	}

	lineage := []LineageEntry{{
		Type:           LineageOriginal,
		Prompt:         origin.Prompt,
		EnhancedPrompt: origin.EnhancedPrompt,
		Timestamp:      origin.CreatedAt,
	}}

	edits, err := s.repo.ListByParentID(ctx, id)
	if err != nil {
		s.logger.Error("error getting edit lineage", zap.Int64("id", id), zap.Error(err))
		return lineage
	}

	for i := range edits {
		edit := &edits[i]
		entry := LineageEntry{
			Type:           LineageEdit,
			Prompt:         edit.Prompt,
			EnhancedPrompt: edit.EnhancedPrompt,
			Timestamp:      edit.CreatedAt,
		}

		meta, err := ParseMetadata(edit.Metadata)
		if err != nil {
			s.logger.Warn("skipping malformed metadata in lineage",
				zap.Int64("id", edit.ID), zap.Error(err))
		} else if meta != nil && meta.EditHistory != nil {
			entry.PreviousPrompt = meta.EditHistory.PreviousEnhancedPrompt
		}

		lineage = append(lineage, entry)
	}

	return lineage
}

// SimilarContext finds the stored generation sharing the most keywords with
// the prompt, breaking ties by recency. Keyword matching is a placeholder
// for proper text similarity search.
func (s *Store) SimilarContext(ctx context.Context, prompt string) *models.Generation {
	keywords := distinctKeywords(prompt)
	if len(keywords) == 0 {
		return nil
	}

	candidates, err := s.repo.MatchAnyKeyword(ctx, keywords)
	if err != nil {
		s.logger.Error("error getting similar context", zap.Error(err))
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	// Candidates arrive newest first, so the first highest score wins ties.
	best := -1
	bestScore := 0
	for i := range candidates {
		score := keywordScore(candidates[i].Prompt, keywords)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return nil
	}

	return &candidates[best]
}

type RecordInfo struct {
	models.Generation
	Status string `json:"status"`
}

type DBInfo struct {
	TotalEntries int                     `json:"total_entries"`
	TableInfo    []repository.ColumnInfo `json:"table_info"`
	Entries      []RecordInfo            `json:"entries"`
}

// Introspect reports the table's column definitions and every record with
// its derived completion status.
func (s *Store) Introspect(ctx context.Context) *DBInfo {
	info := &DBInfo{
		TableInfo: []repository.ColumnInfo{},
		Entries:   []RecordInfo{},
	}

	cols, err := s.repo.Columns(ctx)
	if err != nil {
		s.logger.Error("error getting database info", zap.Error(err))
		return info
	}
	info.TableInfo = cols

	gens, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("error getting database info", zap.Error(err))
		return info
	}

	for i := range gens {
		gen := gens[i]
		info.Entries = append(info.Entries, RecordInfo{
			Generation: gen,
			Status:     DeriveStatus(gen.ImagePath, gen.ModelPath, s.blobs.Exists),
		})
	}
	info.TotalEntries = len(info.Entries)

	return info
}

// Status derives the completion status of a single record.
func (s *Store) Status(gen *models.Generation) string {
	return DeriveStatus(gen.ImagePath, gen.ModelPath, s.blobs.Exists)
}

func (s *Store) removeBlobs(gen *models.Generation) {
	for _, path := range []string{gen.ImagePath, gen.ModelPath} {
		if path == "" || !s.blobs.Exists(path) {
			continue
		}

		if err := s.blobs.Remove(path); err != nil {
			s.logger.Error("error deleting blob", zap.String("path", path), zap.Error(err))
			continue
		}
		s.logger.Info("deleted blob", zap.String("path", path))

		if err := s.blobs.PruneParentDir(path); err != nil {
			s.logger.Debug("could not prune blob directory", zap.String("path", path), zap.Error(err))
		}
	}
}

func distinctKeywords(prompt string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

func keywordScore(prompt string, keywords []string) int {
	lowered := strings.ToLower(prompt)
	score := 0
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			score++
		}
	}

	return score
}
