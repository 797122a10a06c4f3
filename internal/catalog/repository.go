package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const productColumns = `id, title, description, price, category, images, stock, rating, reviews, created_at, updated_at`

// ProductRepository stores products in Postgres. Lookups of a missing or
// malformed id return nil, nil.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var images pq.StringArray
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Category, &images,
		&p.Stock, &p.Rating, &p.Reviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Images = []string(images)
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func filterClause(f domain.ProductFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, "category = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(title ILIKE $"+n+" OR description ILIKE $"+n+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List returns one page of products matching f, newest first, and the
// number of matching products across all pages. f must be normalized.
func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	where, args := filterClause(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	products, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// All returns every product, oldest first.
func (r *ProductRepository) All(ctx context.Context) ([]domain.Product, error) {
	products, err := r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	images := in.Images
	if images == nil {
		images = []string{}
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		INSERT INTO products (id, title, description, price, category, images, stock, rating, reviews)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0)
		RETURNING `+productColumns,
		uuid.New().String(), in.Title, in.Description, *in.Price, in.Category, pq.Array(images), in.Stock,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of u and returns the updated product.
func (r *ProductRepository) Update(ctx context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}
	if u.Empty() {
		return r.GetByID(ctx, id)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.Price != nil {
		set("price", *u.Price)
	}
	if u.Category != nil {
		set("category", *u.Category)
	}
	if u.Images != nil {
		set("images", pq.Array(u.Images))
	}
	if u.Stock != nil {
		set("stock", *u.Stock)
	}
	if u.Rating != nil {
		set("rating", *u.Rating)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), productColumns)

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a product. It reports false when no product had that id.
func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete product %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ReplaceAll deletes every product and inserts products in one
// transaction. Rating and review counts are taken from the input.
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}

	for i := range products {
		p := &products[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		images := p.Images
		if images == nil {
			images = []string{}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, title, description, price, category, images, stock, rating, reviews)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, p.ID, p.Title, p.Description, p.Price, p.Category, pq.Array(images), p.Stock, p.Rating, p.Reviews)
		if err != nil {
			return fmt.Errorf("insert product %q: %w", p.Title, err)
		}
	}

	return tx.Commit()
}
