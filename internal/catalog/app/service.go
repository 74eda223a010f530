package app

import (
	"context"
	"errors"
	"strings"

	"github.com/spicemart/backend/internal/catalog/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo ProductRepo
}

func NewService(repo ProductRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Price.Currency = strings.TrimSpace(p.Price.Currency)

	if p.Name == "" || p.Price.Currency == "" || p.Price.Amount <= 0 {
		return domain.Product{}, ErrInvalidInput
	}

	product, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, query, limit, cursor)
}
