package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/dmgorelik/estore/internal/models"
)

const productIndex = "products"

var ErrUnavailable = errors.New("search is not configured")

// Index mirrors the product table into elasticsearch. A nil *Index is valid:
// writes are dropped and Search fails with ErrUnavailable.
type Index struct {
	es *elasticsearch.Client
}

func New(url, user, password string) (*Index, error) {
	if url == "" {
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: %s", res.Status())
	}

	return &Index{es: client}, nil
}

func (i *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	if i == nil {
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	res, err := i.es.Index(productIndex, bytes.NewReader(body),
		i.es.Index.WithDocumentID(p.ID),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product: %s", res.Status())
	}
	return nil
}

func (i *Index) DeleteProduct(ctx context.Context, id string) error {
	if i == nil {
		return nil
	}

	res, err := i.es.Delete(productIndex, id, i.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer res.Body.Close()
	// 404 just means the document was never indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product: %s", res.Status())
	}
	return nil
}

func (i *Index) Search(ctx context.Context, rawQ string, from, size int) (int64, []models.Product, error) {
	if i == nil {
		return 0, nil, ErrUnavailable
	}

	q := strings.TrimSpace(rawQ)
	if q == "" {
		return 0, []models.Product{}, nil
	}

	query := map[string]any{
		"from": from,
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, nil, err
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(productIndex),
		i.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), raw)
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("search decode: %w", err)
	}

	items := make([]models.Product, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		items = append(items, h.Source)
	}
	return parsed.Hits.Total.Value, items, nil
}
