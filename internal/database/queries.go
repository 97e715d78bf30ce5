package database

// Migration bookkeeping
const (
	CreateMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`

	SelectMigrationsSQL = `SELECT migration_name FROM schema_migrations`

	RecordMigrationSQL = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
)

// Order writes
const (
	UpsertOrderSQL = `
		INSERT INTO orders (id, customer_name, phone, email, status, total_amount,
			estimated_minutes, payment_method, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			total_amount = EXCLUDED.total_amount,
			estimated_minutes = EXCLUDED.estimated_minutes,
			payment_method = EXCLUDED.payment_method,
			updated_at = NOW()`

	DeleteOrderItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, position, name, category, price, prep_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''))`

	InsertPaymentAttemptSQL = `
		INSERT INTO payment_attempts (order_id, method, amount, success, transaction_id,
			error, reason, info, attempted_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`
)

// Tracking reads
const (
	GetOrderStatusSQL = `
		SELECT id, customer_name, status, total_amount::text, estimated_minutes,
			COALESCE(payment_method, ''), created_at, updated_at
		FROM orders WHERE id = $1`

	GetOrderItemsSQL = `
		SELECT name, category, price::text, prep_minutes
		FROM order_items WHERE order_id = $1
		ORDER BY position`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, COALESCE(notes, '')
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC`

	GetPaymentAttemptsSQL = `
		SELECT method, amount::text, success, COALESCE(transaction_id, ''),
			COALESCE(error, ''), COALESCE(reason, ''), info, attempted_at
		FROM payment_attempts
		WHERE order_id = $1
		ORDER BY attempted_at ASC, id ASC`

	GetMaxOrderIDSQL = `SELECT COALESCE(MAX(id), 0) FROM orders`

	OrderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)
