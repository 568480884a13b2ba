package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmgorelik/estore/internal/models"
	"github.com/dmgorelik/estore/internal/repo"
)

func newTestCatalogService(t *testing.T) *CatalogService {
	t.Helper()
	return &CatalogService{Repo: &repo.GormRepo{DB: newTestDB(t)}}
}

func TestCatalogService_CreateAndGet(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(t)
	ctx := context.Background()

	p := &models.Product{Name: "Teapot", Description: "ceramic", Price: 19.90, Count: 3}
	require.NoError(t, svc.CreateProduct(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teapot", got.Name)

	_, err = svc.GetProduct(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_Create_NegativePrice(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(t)
	err := svc.CreateProduct(context.Background(), &models.Product{Name: "Teapot", Price: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalogService_Patch(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(t)
	ctx := context.Background()

	p := &models.Product{Name: "Teapot", Price: 10}
	require.NoError(t, svc.CreateProduct(ctx, p))

	newPrice := 12.5
	updated, err := svc.PatchProduct(ctx, p.ID, ProductPatch{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "Teapot", updated.Name)

	bad := -5.0
	_, err = svc.PatchProduct(ctx, p.ID, ProductPatch{Price: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PatchProduct(ctx, "00000000-0000-0000-0000-000000000000", ProductPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_Delete(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(t)
	ctx := context.Background()

	p := &models.Product{Name: "Teapot", Price: 10}
	require.NoError(t, svc.CreateProduct(ctx, p))

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestCatalogService_List(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, svc.CreateProduct(ctx, &models.Product{Name: "p", Price: 1}))
	}

	page, err := svc.GetProducts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), page.Total)
	assert.Len(t, page.Items, 10)
}

func TestCatalogService_Search_Unconfigured(t *testing.T) {
	t.Parallel()

	svc := newTestCatalogService(t)
	_, err := svc.Search(context.Background(), "teapot", 1, 10)
	assert.Error(t, err)
}
