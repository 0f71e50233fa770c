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

type saleRepository struct {
	exec SQLExecutor
}

// Create inserts the sale header and all of its line items. The sale ID is
// assigned by the caller (snowflake) before insertion. Callers run this
// inside Store.WithinTx together with the stock decrements.
func (r *saleRepository) Create(sale *models.Sale) error {
	query := `INSERT INTO sales
	            (id, user_id, subtotal, gst_amount, total, customer_name, payment_method,
	             sale_time, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if sale.SaleTime.IsZero() {
		sale.SaleTime = time.Now()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}

	_, err := r.exec.Exec(query,
		sale.ID, sale.UserID, sale.Subtotal, sale.GSTAmount, sale.Total,
		sale.CustomerName, sale.PaymentMethod, sale.SaleTime, sale.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: sale ID %d already recorded (constraint: %s)", ErrDuplicateKey, sale.ID, pqErr.Constraint)
		}
		return fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}

	itemQuery := `INSERT INTO sale_items
	                (sale_id, product_id, product_name, quantity, unit_price, total)
	              VALUES ($1, $2, $3, $4, $5, $6)
	              RETURNING id`
	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		err := r.exec.QueryRow(itemQuery,
			item.SaleID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.Total,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("%w: creating sale item (product_id: %d): %v", ErrDatabaseError, item.ProductID, err)
		}
	}
	return nil
}

func (r *saleRepository) GetAll(userID int64, filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, user_id, subtotal, gst_amount, total, customer_name,
	    payment_method, sale_time, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM sales`)

	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argCount := 2

	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argCount))
		args = append(args, *filters.PaymentMethod)
		argCount++
	}
	if filters.DatePreset != nil {
		if start, ok := datePresetStart(*filters.DatePreset, time.Now()); ok {
			conditions = append(conditions, fmt.Sprintf("sale_time >= $%d", argCount))
			args = append(args, start)
			argCount++
		}
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY sale_time DESC")

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
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	saleIDs := []int64{}
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Subtotal, &s.GSTAmount, &s.Total, &s.CustomerName,
			&s.PaymentMethod, &s.SaleTime, &s.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		s.Items = []models.SaleItem{}
		sales = append(sales, s)
		saleIDs = append(saleIDs, s.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}

	if len(saleIDs) > 0 {
		items, err := r.getItemsForSales(saleIDs)
		if err != nil {
			return nil, 0, err
		}
		bySale := make(map[int64][]models.SaleItem, len(saleIDs))
		for _, item := range items {
			bySale[item.SaleID] = append(bySale[item.SaleID], item)
		}
		for i := range sales {
			if list, ok := bySale[sales[i].ID]; ok {
				sales[i].Items = list
			}
		}
	}
	return sales, totalCount, nil
}

func (r *saleRepository) GetByID(userID, id int64) (*models.Sale, error) {
	sale := &models.Sale{}
	query := `SELECT id, user_id, subtotal, gst_amount, total, customer_name,
	                 payment_method, sale_time, created_at
	          FROM sales
	          WHERE id = $1 AND user_id = $2`
	err := r.exec.QueryRow(query, id, userID).Scan(
		&sale.ID, &sale.UserID, &sale.Subtotal, &sale.GSTAmount, &sale.Total, &sale.CustomerName,
		&sale.PaymentMethod, &sale.SaleTime, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, id, err)
	}

	items, err := r.getItemsForSales([]int64{id})
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (r *saleRepository) getItemsForSales(saleIDs []int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `SELECT id, sale_id, product_id, product_name, quantity, unit_price, total
	          FROM sale_items
	          WHERE sale_id = ANY($1)
	          ORDER BY id`
	rows, err := r.exec.Query(query, pq.Array(saleIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Total,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
