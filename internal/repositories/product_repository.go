package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/lib/pq"
)

type productRepository struct {
	exec SQLExecutor
}

func (r *productRepository) Create(product *models.Product) (int64, error) {
	query := `INSERT INTO products
	          (user_id, name, category, price, quantity, min_stock_level, max_stock_level,
	           supplier, location, unit, tax_rate, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	currentTime := time.Now()

	err := r.exec.QueryRow(query,
		product.UserID, product.Name, product.Category, product.Price, product.Quantity,
		product.MinStockLevel, product.MaxStockLevel, product.Supplier, product.Location,
		product.Unit, product.TaxRate, currentTime, currentTime,
	).Scan(&product.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime
	return product.ID, nil
}

func (r *productRepository) GetByID(userID, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, user_id, name, category, price, quantity, min_stock_level, max_stock_level,
	                 supplier, location, unit, tax_rate, created_at, updated_at
	          FROM products
	          WHERE id = $1 AND user_id = $2`
	err := r.exec.QueryRow(query, id, userID).Scan(
		&product.ID, &product.UserID, &product.Name, &product.Category, &product.Price, &product.Quantity,
		&product.MinStockLevel, &product.MaxStockLevel, &product.Supplier, &product.Location,
		&product.Unit, &product.TaxRate, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) GetAll(userID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, user_id, name, category, price, quantity, min_stock_level, max_stock_level,
	    supplier, location, unit, tax_rate, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM products`)

	conditions := []string{fmt.Sprintf("user_id = $%d", 1)}
	args := []interface{}{userID}
	argCount := 2

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}
	if filters.Supplier != nil && *filters.Supplier != "" {
		conditions = append(conditions, fmt.Sprintf("supplier = $%d", argCount))
		args = append(args, *filters.Supplier)
		argCount++
	}
	if filters.StockBucket != nil {
		switch *filters.StockBucket {
		case models.StockBucketOut:
			conditions = append(conditions, "quantity = 0")
		case models.StockBucketLow:
			conditions = append(conditions, "quantity > 0 AND min_stock_level IS NOT NULL AND quantity <= min_stock_level")
		}
	}
	if filters.DatePreset != nil {
		if start, ok := datePresetStart(*filters.DatePreset, time.Now()); ok {
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argCount))
			args = append(args, start)
			argCount++
		}
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY name")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.exec.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var product models.Product
		if err := rows.Scan(
			&product.ID, &product.UserID, &product.Name, &product.Category, &product.Price, &product.Quantity,
			&product.MinStockLevel, &product.MaxStockLevel, &product.Supplier, &product.Location,
			&product.Unit, &product.TaxRate, &product.CreatedAt, &product.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) Update(product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, category = $2, price = $3, quantity = $4, min_stock_level = $5,
	            max_stock_level = $6, supplier = $7, location = $8, unit = $9, tax_rate = $10,
	            updated_at = $11
	          WHERE id = $12 AND user_id = $13`
	result, err := r.exec.Exec(query,
		product.Name, product.Category, product.Price, product.Quantity, product.MinStockLevel,
		product.MaxStockLevel, product.Supplier, product.Location, product.Unit, product.TaxRate,
		time.Now(), product.ID, product.UserID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product '%s' already exists (constraint: %s)", ErrDuplicateKey, product.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(userID, id int64) error {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2`
	result, err := r.exec.Exec(query, id, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("%w: product ID %d is referenced by other records (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DecrementStock(userID, productID int64, qty int) (int, error) {
	var newQuantity int
	query := `UPDATE products
	          SET quantity = quantity - $1, updated_at = $2
	          WHERE id = $3 AND user_id = $4 AND quantity >= $1
	          RETURNING quantity`
	err := r.exec.QueryRow(query, qty, time.Now(), productID, userID).Scan(&newQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the product is gone or the guard rejected the decrement.
			var exists bool
			checkErr := r.exec.QueryRow("SELECT TRUE FROM products WHERE id = $1 AND user_id = $2", productID, userID).Scan(&exists)
			if errors.Is(checkErr, sql.ErrNoRows) {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: product ID %d", ErrStockBelowZero, productID)
		}
		return 0, fmt.Errorf("%w: decrementing stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return newQuantity, nil
}
