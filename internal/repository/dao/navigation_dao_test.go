package dao

import (
	"context"
	"errors"
	"testing"

	"oneplace/internal/domain/model"
	"oneplace/internal/repository/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(database.Config{Driver: "sqlite", DSN: "file::memory:", MaxOpen: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db, &model.NavigationNode{}))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestNavigationDAOListAllEmpty(t *testing.T) {
	d := NewNavigationDAO(newTestDB(t))
	list, err := d.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNavigationDAOCreateAndList(t *testing.T) {
	ctx := context.Background()
	d := NewNavigationDAO(newTestDB(t))

	root := &model.NavigationNode{Title: "Shop", Icon: strPtr("store")}
	require.NoError(t, d.Create(ctx, root))
	require.NotZero(t, root.ID)
	child := &model.NavigationNode{Title: "Catalog", Link: strPtr("/catalog"), ParentID: &root.ID}
	require.NoError(t, d.Create(ctx, child))

	list, err := d.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Shop", list[0].Title)
	assert.Nil(t, list[0].ParentID)
	assert.Equal(t, "store", *list[0].Icon)
	assert.Nil(t, list[0].Link)
	assert.Equal(t, "Catalog", list[1].Title)
	require.NotNil(t, list[1].ParentID)
	assert.Equal(t, root.ID, *list[1].ParentID)

	n, err := d.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestNavigationDAOStoreUnavailable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, database.Close(db))

	_, err := NewNavigationDAO(db).ListAll(context.Background())
	assert.Error(t, err)
}

func TestNavigationDAOTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	d := NewNavigationDAO(newTestDB(t))

	err := d.Transaction(ctx, func(tx *NavigationDAO) error {
		require.NoError(t, tx.Create(ctx, &model.NavigationNode{Title: "Shop"}))
		n, err := tx.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")

	n, err := d.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, d.Transaction(ctx, func(tx *NavigationDAO) error {
		return tx.Create(ctx, &model.NavigationNode{Title: "Shop"})
	}))
	n, err = d.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
