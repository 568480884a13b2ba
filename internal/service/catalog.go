package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmgorelik/estore/internal/cache"
	"github.com/dmgorelik/estore/internal/logging"
	"github.com/dmgorelik/estore/internal/models"
	"github.com/dmgorelik/estore/internal/repo"
	"github.com/dmgorelik/estore/internal/search"
)

const productCacheTTL = time.Hour

var ErrPriceNegative = errors.New("price cannot be negative")

type ProductRepo interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	PatchProduct(ctx context.Context, id string, apply func(*models.Product)) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CatalogService struct {
	Repo  ProductRepo
	Cache *cache.Cache
	Index *search.Index
}

type ProductPage struct {
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Items []models.Product `json:"items"`
}

func productCacheKey(id string) string { return fmt.Sprintf("product_%s", id) }

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	key := productCacheKey(id)

	var cached models.Product
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Cache.Set(ctx, key, product, productCacheTTL)
	return product, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	total, items, err := s.Repo.GetProducts(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Total: total, Page: page, Limit: limit, Items: items}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.Price < 0 {
		return fmt.Errorf("%w: %v", ErrValidation, ErrPriceNegative)
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.reindex(ctx, p)
	return nil
}

type ProductPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Count       *uint    `json:"count"`
}

func (s *CatalogService) PatchProduct(ctx context.Context, id string, patch ProductPatch) (*models.Product, error) {
	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidation, ErrPriceNegative)
	}

	product, err := s.Repo.PatchProduct(ctx, id, func(p *models.Product) {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Count != nil {
			p.Count = *patch.Count
		}
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.Cache.Del(ctx, productCacheKey(id))
	s.reindex(ctx, product)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Cache.Del(ctx, productCacheKey(id))
	if err := s.Index.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Error("search_delete_failed", "product_id", id, "error", err)
	}
	return nil
}

func (s *CatalogService) Search(ctx context.Context, q string, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	total, items, err := s.Index.Search(ctx, q, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Total: total, Page: page, Limit: limit, Items: items}, nil
}

// Index writes are best-effort; the relational store stays the source of
// truth and a failed index never fails the request.
func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "product_id", p.ID, "error", err)
	}
}
