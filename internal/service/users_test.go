package service

import (
	"context"
	"testing"

	"foodgram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceSubscriptionFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, env.db)
	followed := testutil.CreateUser(t, env.db)
	other := testutil.CreateUser(t, env.db)

	_, err := env.relations.Follow(ctx, viewer.ID, followed.ID, AllRecipes)
	require.NoError(t, err)

	views, total, err := env.users.ListUsers(ctx, viewer.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	flags := map[uint]bool{}
	for _, v := range views {
		flags[v.ID] = v.IsSubscribed
	}
	assert.Equal(t, map[uint]bool{viewer.ID: false, followed.ID: true, other.ID: false}, flags)

	anon, err := env.users.GetUser(ctx, 0, followed.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)

	me, err := env.users.Me(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, viewer.Email, me.Email)
}

func TestUserServiceSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, env.db)
	a1 := testutil.CreateUser(t, env.db)
	a2 := testutil.CreateUser(t, env.db)
	for i := 0; i < 4; i++ {
		testutil.CreateRecipe(t, env.db, a1, nil)
	}
	testutil.CreateRecipe(t, env.db, a2, nil)

	for _, a := range []uint{a1.ID, a2.ID} {
		_, err := env.relations.Follow(ctx, viewer.ID, a, AllRecipes)
		require.NoError(t, err)
	}

	views, total, err := env.users.Subscriptions(ctx, viewer.ID, 10, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, views, 2)
	assert.Equal(t, a1.ID, views[0].ID)
	assert.Len(t, views[0].Recipes, 2)
	assert.Equal(t, int64(4), views[0].RecipesCount)
	assert.True(t, views[0].IsSubscribed)

	views, _, err = env.users.Subscriptions(ctx, viewer.ID, 10, 0, AllRecipes)
	require.NoError(t, err)
	assert.Len(t, views[0].Recipes, 4)

	views, total, err = env.users.Subscriptions(ctx, viewer.ID, 1, 1, AllRecipes)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, views, 1)
	assert.Equal(t, a2.ID, views[0].ID)
}

func TestUserServiceSubscriptionsNegativeLimitShowsAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, env.db)
	author := testutil.CreateUser(t, env.db)
	for i := 0; i < 3; i++ {
		testutil.CreateRecipe(t, env.db, author, nil)
	}
	_, err := env.relations.Follow(ctx, viewer.ID, author.ID, 0)
	require.NoError(t, err)

	views, _, err := env.users.Subscriptions(ctx, viewer.ID, 10, 0, -5)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].Recipes, 3)
	assert.Equal(t, int64(3), views[0].RecipesCount)

	views, _, err = env.users.Subscriptions(ctx, viewer.ID, 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, views[0].Recipes)
	assert.Equal(t, int64(3), views[0].RecipesCount)
}
