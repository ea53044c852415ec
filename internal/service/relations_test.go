package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"foodgram/internal/models"
	"foodgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relationStoreStub struct {
	addFn    func(context.Context, uint, uint) (bool, error)
	removeFn func(context.Context, uint, uint) (bool, error)
}

func (s *relationStoreStub) Add(ctx context.Context, subjectID, objectID uint) (bool, error) {
	return s.addFn(ctx, subjectID, objectID)
}
func (s *relationStoreStub) Remove(ctx context.Context, subjectID, objectID uint) (bool, error) {
	return s.removeFn(ctx, subjectID, objectID)
}
func (s *relationStoreStub) Contains(context.Context, uint, uint) (bool, error) { return false, nil }
func (s *relationStoreStub) ObjectIDs(context.Context, uint, []uint) (map[uint]bool, error) {
	return map[uint]bool{}, nil
}
func (s *relationStoreStub) CountObjects(context.Context, uint) (int64, error) { return 0, nil }

func failingStore(t *testing.T) *relationStoreStub {
	return &relationStoreStub{
		addFn: func(context.Context, uint, uint) (bool, error) {
			t.Fatal("store must not be called")
			return false, nil
		},
		removeFn: func(context.Context, uint, uint) (bool, error) {
			t.Fatal("store must not be called")
			return false, nil
		},
	}
}

func TestRelationServiceFollowSelfSkipsStore(t *testing.T) {
	svc := NewRelationService(failingStore(t), failingStore(t), failingStore(t), nil, nil, nil)

	_, err := svc.Follow(context.Background(), 7, 7, AllRecipes)
	assert.True(t, models.IsCode(err, models.CodeInvalidSelfReference))
}

func TestRelationServiceMapsStoreResults(t *testing.T) {
	existing := &relationStoreStub{
		addFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		removeFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
	svc := NewRelationService(existing, existing, existing, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.AddFavorite(ctx, 1, 2)
	assert.True(t, models.IsCode(err, models.CodeAlreadyExists))
	_, err = svc.AddToCart(ctx, 1, 2)
	assert.True(t, models.IsCode(err, models.CodeAlreadyExists))
	_, err = svc.Follow(ctx, 1, 2, AllRecipes)
	assert.True(t, models.IsCode(err, models.CodeAlreadyExists))

	assert.True(t, models.IsCode(svc.RemoveFavorite(ctx, 1, 2), models.CodeNotFound))
	assert.True(t, models.IsCode(svc.RemoveFromCart(ctx, 1, 2), models.CodeNotFound))
	assert.True(t, models.IsCode(svc.Unfollow(ctx, 1, 2), models.CodeNotFound))
}

func TestRelationServicePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	broken := &relationStoreStub{
		addFn:    func(context.Context, uint, uint) (bool, error) { return false, models.NewInternalError(boom) },
		removeFn: func(context.Context, uint, uint) (bool, error) { return false, models.NewInternalError(boom) },
	}
	svc := NewRelationService(broken, broken, broken, nil, nil, nil)

	_, err := svc.AddFavorite(context.Background(), 1, 2)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.RemoveFromCart(context.Background(), 1, 2), boom)
}

func TestFavoriteToggleUpdatesProjection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db)
	reader := testutil.CreateUser(t, env.db)
	recipe := testutil.CreateRecipe(t, env.db, author, nil)

	short, err := env.relations.AddFavorite(ctx, reader.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "/media/"+recipe.Image, short.Image)

	view, err := env.recipes.GetRecipe(ctx, reader.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)

	_, err = env.relations.AddFavorite(ctx, reader.ID, recipe.ID)
	assert.True(t, models.IsCode(err, models.CodeAlreadyExists))

	require.NoError(t, env.relations.RemoveFavorite(ctx, reader.ID, recipe.ID))
	view, err = env.recipes.GetRecipe(ctx, reader.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)
}

func TestCartToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db)
	recipe := testutil.CreateRecipe(t, env.db, author, nil)

	err := env.relations.RemoveFromCart(ctx, author.ID, recipe.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "remove of a missing entry")

	_, err = env.relations.AddToCart(ctx, author.ID, recipe.ID)
	require.NoError(t, err)
	view, err := env.recipes.GetRecipe(ctx, author.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.IsInShoppingCart)

	_, err = env.relations.AddToCart(ctx, author.ID, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "unknown recipe")
}

func TestRemoveFavoriteNeverFavorited(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db)
	recipe := testutil.CreateRecipe(t, env.db, author, nil)

	err := env.relations.RemoveFavorite(context.Background(), author.ID, recipe.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestConcurrentAddFavoriteSucceedsOnce(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db)
	reader := testutil.CreateUser(t, env.db)
	recipe := testutil.CreateRecipe(t, env.db, author, nil)

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.relations.AddFavorite(context.Background(), reader.ID, recipe.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case models.IsCode(err, models.CodeAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	var rows int64
	require.NoError(t, env.db.Model(&models.Favorite{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestFollowSelfAlwaysFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, env.db)
	other := testutil.CreateUser(t, env.db)

	_, err := env.relations.Follow(ctx, user.ID, user.ID, AllRecipes)
	assert.True(t, models.IsCode(err, models.CodeInvalidSelfReference))

	_, err = env.relations.Follow(ctx, user.ID, other.ID, AllRecipes)
	require.NoError(t, err)

	_, err = env.relations.Follow(ctx, user.ID, user.ID, AllRecipes)
	assert.True(t, models.IsCode(err, models.CodeInvalidSelfReference))
}

func TestFollowReturnsAuthorWithRecipes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := testutil.CreateUser(t, env.db)
	author := testutil.CreateUser(t, env.db)
	for i := 0; i < 3; i++ {
		testutil.CreateRecipe(t, env.db, author, nil)
	}

	view, err := env.relations.Follow(ctx, follower.ID, author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, view.ID)
	assert.True(t, view.IsSubscribed)
	assert.Len(t, view.Recipes, 2)
	assert.Equal(t, int64(3), view.RecipesCount)

	_, err = env.relations.Follow(ctx, follower.ID, author.ID, AllRecipes)
	assert.True(t, models.IsCode(err, models.CodeAlreadyExists))

	_, err = env.relations.Follow(ctx, follower.ID, 9999, AllRecipes)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	require.NoError(t, env.relations.Unfollow(ctx, follower.ID, author.ID))
	assert.True(t, models.IsCode(env.relations.Unfollow(ctx, follower.ID, author.ID), models.CodeNotFound))
}
