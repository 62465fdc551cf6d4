package generations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/db/models"
	"github.com/dreamforge-ai/dreamforge/internal/db/repository"
	"github.com/dreamforge-ai/dreamforge/internal/services/blobstore"
)

func newTestStore(t *testing.T) (*Store, *blobstore.LocalStore) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.NewCreateTable().Model((*models.Generation)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)

	blobs := blobstore.NewLocalStore(t.TempDir(), zap.NewNop())
	store := NewStore(repository.NewGenerationRepository(db), blobs, zap.NewNop())

	// deterministic monotonic timestamps
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}

	return store, blobs
}

func TestSaveAssignsIncreasingIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := store.Save(ctx, SaveParams{Prompt: "a dragon"})
	second := store.Save(ctx, SaveParams{Prompt: "a castle"})

	require.NotEqual(t, SaveFailed, first)
	require.NotEqual(t, SaveFailed, second)
	assert.Greater(t, second, first)
}

func TestSaveRejectsEmptyPrompt(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Equal(t, SaveFailed, store.Save(context.Background(), SaveParams{Prompt: "   "}))
	assert.Empty(t, store.ListRecent(context.Background(), 10))
}

func TestListRecentNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, SaveParams{Prompt: "first"})
	store.Save(ctx, SaveParams{Prompt: "second"})
	store.Save(ctx, SaveParams{Prompt: "third"})

	gens := store.ListRecent(ctx, 2)
	require.Len(t, gens, 2)
	assert.Equal(t, "third", gens[0].Prompt)
	assert.Equal(t, "second", gens[1].Prompt)
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, SaveParams{Prompt: "A Glowing DRAGON at dusk"})
	store.Save(ctx, SaveParams{Prompt: "a red car", EnhancedPrompt: "a photorealistic Dragon-red car"})
	store.Save(ctx, SaveParams{Prompt: "a castle"})

	matches := store.Search(ctx, "dragon")
	require.Len(t, matches, 2)

	assert.Empty(t, store.Search(ctx, "spaceship"))
}

func TestGetUnknownIDReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Nil(t, store.Get(context.Background(), 12345))
}

func TestDeleteNonexistentReturnsFalse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, SaveParams{Prompt: "a dragon"})

	assert.False(t, store.Delete(ctx, 999))
	assert.Len(t, store.ListRecent(ctx, 10), 1)
}

func TestDeleteRemovesRecordAndBlobs(t *testing.T) {
	store, blobs := newTestStore(t)
	ctx := context.Background()

	imagePath, err := blobs.SaveImage([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a})
	require.NoError(t, err)
	modelPath, err := blobs.SaveModel([]byte("glb-bytes"))
	require.NoError(t, err)

	id := store.Save(ctx, SaveParams{Prompt: "a dragon", ImagePath: imagePath, ModelPath: modelPath})
	require.NotEqual(t, SaveFailed, id)

	assert.True(t, store.Delete(ctx, id))
	assert.Nil(t, store.Get(ctx, id))
	assert.False(t, blobs.Exists(imagePath))
	assert.False(t, blobs.Exists(modelPath))
}

func TestDeleteSucceedsWhenBlobAlreadyGone(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id := store.Save(ctx, SaveParams{
		Prompt:    "a dragon",
		ImagePath: "/nowhere/image_20250102_030405.png",
	})
	require.NotEqual(t, SaveFailed, id)

	assert.True(t, store.Delete(ctx, id))
}

func TestClearAllEmptiesStore(t *testing.T) {
	store, blobs := newTestStore(t)
	ctx := context.Background()

	imagePath, err := blobs.SaveImage([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a})
	require.NoError(t, err)

	store.Save(ctx, SaveParams{Prompt: "a dragon", ImagePath: imagePath})
	store.Save(ctx, SaveParams{Prompt: "a castle"})

	assert.True(t, store.ClearAll(ctx))
	assert.Empty(t, store.ListRecent(ctx, 10))
	assert.False(t, blobs.Exists(imagePath))

	// clearing an already-empty store still succeeds
	assert.True(t, store.ClearAll(ctx))
}

func TestEditLineageChronology(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	originID := store.Save(ctx, SaveParams{Prompt: "a dragon", EnhancedPrompt: "a majestic dragon"})
	require.NotEqual(t, SaveFailed, originID)

	firstEdit := store.Save(ctx, SaveParams{
		Prompt:         "make it blue",
		EnhancedPrompt: "a majestic blue dragon",
		ParentID:       originID,
		Metadata: &Metadata{EditHistory: &EditHistory{
			OriginalPrompt:         "a dragon",
			EditPrompt:             "make it blue",
			PreviousEnhancedPrompt: "a majestic dragon",
			Timestamp:              time.Date(2025, 1, 2, 3, 4, 7, 0, time.UTC),
		}},
	})
	require.NotEqual(t, SaveFailed, firstEdit)

	secondEdit := store.Save(ctx, SaveParams{
		Prompt:         "add wings of fire",
		EnhancedPrompt: "a majestic blue dragon with fiery wings",
		ParentID:       originID,
		Metadata: &Metadata{EditHistory: &EditHistory{
			OriginalPrompt:         "a dragon",
			EditPrompt:             "add wings of fire",
			PreviousEnhancedPrompt: "a majestic blue dragon",
			Timestamp:              time.Date(2025, 1, 2, 3, 4, 8, 0, time.UTC),
		}},
	})
	require.NotEqual(t, SaveFailed, secondEdit)

	lineage := store.EditLineage(ctx, originID)
	require.Len(t, lineage, 3)

	assert.Equal(t, LineageOriginal, lineage[0].Type)
	assert.Equal(t, "a dragon", lineage[0].Prompt)

	assert.Equal(t, LineageEdit, lineage[1].Type)
	assert.Equal(t, "make it blue", lineage[1].Prompt)
	assert.Equal(t, "a majestic dragon", lineage[1].PreviousPrompt)

	assert.Equal(t, LineageEdit, lineage[2].Type)
	assert.Equal(t, "a majestic blue dragon", lineage[2].PreviousPrompt)
}

func TestEditLineageUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Nil(t, store.EditLineage(context.Background(), 777))
}

func TestSimilarContextPicksHighestOverlap(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, SaveParams{Prompt: "a red sports car"})
	dragonID := store.Save(ctx, SaveParams{Prompt: "a red dragon guarding a castle"})

	match := store.SimilarContext(ctx, "red dragon castle")
	require.NotNil(t, match)
	assert.Equal(t, dragonID, match.ID)
}

func TestSimilarContextNoOverlapReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, SaveParams{Prompt: "a red sports car"})

	assert.Nil(t, store.SimilarContext(ctx, "submarine"))
	assert.Nil(t, store.SimilarContext(ctx, "   "))
}

func TestIntrospectReportsSchemaAndStatuses(t *testing.T) {
	store, blobs := newTestStore(t)
	ctx := context.Background()

	imagePath, err := blobs.SaveImage([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a})
	require.NoError(t, err)
	modelPath, err := blobs.SaveModel([]byte("glb-bytes"))
	require.NoError(t, err)

	store.Save(ctx, SaveParams{Prompt: "complete", ImagePath: imagePath, ModelPath: modelPath})
	store.Save(ctx, SaveParams{Prompt: "image only", ImagePath: imagePath})
	store.Save(ctx, SaveParams{Prompt: "incomplete"})

	info := store.Introspect(ctx)
	require.NotNil(t, info)
	assert.Equal(t, 3, info.TotalEntries)
	require.Len(t, info.Entries, 3)

	statuses := make(map[string]string)
	for _, entry := range info.Entries {
		statuses[entry.Prompt] = entry.Status
	}
	assert.Equal(t, StatusComplete, statuses["complete"])
	assert.Equal(t, StatusImageOnly, statuses["image only"])
	assert.Equal(t, StatusIncomplete, statuses["incomplete"])

	names := make([]string, 0, len(info.TableInfo))
	for _, col := range info.TableInfo {
		names = append(names, col.Name)
	}
	assert.Contains(t, names, "id")
	assert.Contains(t, names, "prompt")
	assert.Contains(t, names, "parent_id")
}
