package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/spicemart/backend/internal/catalog/app"
	"github.com/spicemart/backend/internal/catalog/domain"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `
	p.id, p.name, p.description, p.price_amount, p.currency,
	COALESCE(p.main_image, ''), p.rating, p.review_count, p.is_sale, p.is_new,
	c.id, c.name,
	p.created_at, p.updated_at`

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	var categoryID uuid.NullUUID
	if p.Category != nil {
		cid, err := uuid.Parse(p.Category.ID)
		if err != nil {
			return domain.Product{}, app.ErrInvalidInput
		}
		categoryID = uuid.NullUUID{UUID: cid, Valid: true}
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, name, description, price_amount, currency, main_image, rating, review_count, is_sale, is_new, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		uuid.New(), p.Name, p.Description, p.Price.Amount, p.Price.Currency,
		p.MainImage, p.Rating, p.ReviewCount, p.IsSale, p.IsNew, categoryID,
	).Scan(&id)
	if err != nil {
		return domain.Product{}, err
	}

	return r.Get(ctx, id.String())
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	prodID, err := uuid.Parse(id)
	if err != nil {
		// An id that is not a UUID cannot reference any product.
		return domain.Product{}, app.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, prodID)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	var cur uuid.NullUUID
	if strings.TrimSpace(cursor) != "" {
		uid, err := uuid.Parse(strings.TrimSpace(cursor))
		if err != nil {
			return nil, "", app.ErrInvalidInput
		}
		cur = uuid.NullUUID{UUID: uid, Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%')
		  AND ($2::uuid IS NULL OR p.id > $2)
		ORDER BY p.id
		LIMIT $3`, strings.TrimSpace(query), cur, int32(limit))
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, limit)
	var nextCursor string

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, p)
		nextCursor = p.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	if len(out) < limit {
		nextCursor = ""
	}

	return out, nextCursor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p       domain.Product
		id      uuid.UUID
		catID   uuid.NullUUID
		catName sql.NullString
	)

	err := row.Scan(
		&id, &p.Name, &p.Description, &p.Price.Amount, &p.Price.Currency,
		&p.MainImage, &p.Rating, &p.ReviewCount, &p.IsSale, &p.IsNew,
		&catID, &catName,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	p.ID = id.String()
	if catID.Valid {
		p.Category = &domain.Category{
			ID:   catID.UUID.String(),
			Name: catName.String,
		}
	}

	return p, nil
}
