package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/spicemart/backend/internal/guest/app"
	"github.com/spicemart/backend/internal/guest/domain"
)

// CartStore owns the durable per-user cart. One cart per user; appends are
// deduplicated on (cart_id, product_id, container) so merge retries cannot
// duplicate lines.
type CartStore struct {
	db *sql.DB
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

func (s *CartStore) GetOrCreate(ctx context.Context, userID string) (app.DurableCart, bool, error) {
	cart, err := s.get(ctx, userID)
	if err == nil {
		return cart, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return app.DurableCart{}, false, err
	}

	id := uuid.New()
	// A concurrent creator wins the unique user_id; the re-read below picks
	// up whichever row exists.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		id, userID)
	if err != nil {
		return app.DurableCart{}, false, err
	}

	cart, err = s.get(ctx, userID)
	if err != nil {
		return app.DurableCart{}, false, err
	}

	return cart, cart.ID == id.String(), nil
}

func (s *CartStore) AppendLine(ctx context.Context, cartID string, line domain.CartLine) error {
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return err
	}
	productUUID, err := uuid.Parse(line.ProductID)
	if err != nil {
		// A product id that is not a UUID cannot reference any catalog row.
		// Drop the line the same way enrichment drops it, instead of failing
		// the whole merge over one corrupt guest entry.
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, container, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id, container) DO NOTHING`,
		uuid.New(), cartUUID, productUUID, line.Container, line.Quantity)
	return err
}

func (s *CartStore) get(ctx context.Context, userID string) (app.DurableCart, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		return app.DurableCart{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, container, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY seq`, id)
	if err != nil {
		return app.DurableCart{}, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var (
			productID uuid.UUID
			line      domain.CartLine
		)
		if err := rows.Scan(&productID, &line.Container, &line.Quantity); err != nil {
			return app.DurableCart{}, err
		}
		line.ProductID = productID.String()
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return app.DurableCart{}, err
	}

	return app.DurableCart{
		ID:     id.String(),
		UserID: userID,
		Lines:  lines,
	}, nil
}
