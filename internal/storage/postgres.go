package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"shop-bot/internal/config"
	"shop-bot/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrIdempotencyReused = errors.New("idempotency key belongs to another customer")
)

const idempotencyConstraint = "orders_idempotency_key_key"

type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	var db *sqlx.DB

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err := backoff.RetryNotify(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			db = conn
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{db: db, logger: logger}, nil
}

// DB exposes the underlying pool for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

const productColumns = `id, COALESCE(category_id, 0) AS category_id, name_uz, name_ru, name_en,
	price, image_url, is_active, sort_order`

func (s *PostgresStorage) ActiveProducts(ctx context.Context) ([]model.Product, error) {
	const query = `SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		ORDER BY sort_order, id`

	var products []model.Product
	if err := s.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("select active products: %w", err)
	}
	return products, nil
}

// ProductsByIDs returns the active products among ids.
func (s *PostgresStorage) ProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `SELECT ` + productColumns + `
		FROM products
		WHERE is_active AND id = ANY($1)`

	var products []model.Product
	if err := s.db.SelectContext(ctx, &products, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("select products by ids: %w", err)
	}
	return products, nil
}

func (s *PostgresStorage) Categories(ctx context.Context) ([]model.Category, error) {
	const query = `
		SELECT c.id, c.name_uz, c.name_ru, c.name_en, c.image_url, c.sort_order,
			COUNT(p.id) AS active_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.is_active
		GROUP BY c.id
		ORDER BY c.sort_order, c.id`

	var categories []model.Category
	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

const profileColumns = `id, telegram_id, COALESCE(language, '') AS language,
	COALESCE(phone, '') AS phone, COALESCE(full_name, '') AS full_name,
	COALESCE(username, '') AS username, created_at`

func (s *PostgresStorage) GetUser(ctx context.Context, telegramID string) (*model.UserProfile, error) {
	const query = `SELECT ` + profileColumns + ` FROM user_profiles WHERE telegram_id = $1`

	var p model.UserProfile
	if err := s.db.GetContext(ctx, &p, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &p, nil
}

func (s *PostgresStorage) UpsertUser(ctx context.Context, upd model.ProfileUpdate) (*model.UserProfile, error) {
	var profile *model.UserProfile

	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			p, err := upsertProfile(ctx, tx, upd)
			if err != nil {
				return err
			}
			profile = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// upsertProfile creates the profile row if needed, locks it, and merges upd
// into it. Only non-empty fields overwrite stored values.
func upsertProfile(ctx context.Context, tx *sqlx.Tx, upd model.ProfileUpdate) (*model.UserProfile, error) {
	const lockQuery = `
		INSERT INTO user_profiles (telegram_id) VALUES ($1)
		ON CONFLICT (telegram_id) DO UPDATE SET telegram_id = EXCLUDED.telegram_id
		RETURNING ` + profileColumns

	var p model.UserProfile
	if err := tx.GetContext(ctx, &p, lockQuery, upd.TelegramID); err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}

	upd.ApplyTo(&p)

	const updateQuery = `
		UPDATE user_profiles
		SET language = NULLIF($2, ''), phone = NULLIF($3, ''),
			full_name = NULLIF($4, ''), username = NULLIF($5, '')
		WHERE id = $1`

	if _, err := tx.ExecContext(ctx, updateQuery, p.ID, p.Language, p.Phone, p.FullName, p.Username); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &p, nil
}

const orderColumns = `o.id, o.user_id, o.total, o.comment, o.address, o.contact_whatsapp,
	o.contact_email, o.status, COALESCE(o.idempotency_key, '') AS idempotency_key, o.created_at`

// CreateOrder upserts the customer and stores the order with its items in
// one transaction. When order.IdempotencyKey matches an existing order of
// the same customer that order is returned with created=false and nothing
// is written. A key already used by another customer is ErrIdempotencyReused.
func (s *PostgresStorage) CreateOrder(ctx context.Context, upd model.ProfileUpdate, order *model.Order) (*model.Order, bool, error) {
	var (
		saved   *model.Order
		created bool
	)

	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			customer, err := upsertProfile(ctx, tx, upd)
			if err != nil {
				return err
			}

			if order.IdempotencyKey != "" {
				existing, err := orderByKey(ctx, tx, order.IdempotencyKey)
				if err == nil {
					if existing.UserID != customer.ID {
						return fmt.Errorf("%w: order %d", ErrIdempotencyReused, existing.ID)
					}
					existing.Customer = *customer
					saved, created = existing, false
					return nil
				}
				if !errors.Is(err, ErrNotFound) {
					return err
				}
			}

			o := *order
			o.UserID = customer.ID
			o.Customer = *customer
			o.Items = append([]model.OrderItem(nil), order.Items...)

			const insertOrder = `
				INSERT INTO orders (user_id, total, comment, address, contact_whatsapp,
					contact_email, status, idempotency_key)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
				RETURNING id, created_at`

			if err := tx.QueryRowxContext(ctx, insertOrder,
				o.UserID, o.Total, o.Comment, o.Address, o.ContactWhatsApp,
				o.ContactEmail, o.Status, o.IdempotencyKey,
			).Scan(&o.ID, &o.CreatedAt); err != nil {
				return fmt.Errorf("insert order: %w", err)
			}

			const insertItem = `
				INSERT INTO order_items (order_id, product_id, name_uz, name_ru, name_en,
					quantity, price)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id`

			for i := range o.Items {
				item := &o.Items[i]
				item.OrderID = o.ID
				if err := tx.QueryRowxContext(ctx, insertItem,
					o.ID, item.ProductID, item.ProductNameUZ, item.ProductNameRU,
					item.ProductNameEN, item.Quantity, item.Price,
				).Scan(&item.ID); err != nil {
					return fmt.Errorf("insert order item: %w", err)
				}
			}

			saved, created = &o, true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("Order created",
			zap.Int64("order_id", saved.ID),
			zap.String("telegram_id", saved.Customer.TelegramID),
			zap.String("total", saved.Total.String()))
	}
	return saved, created, nil
}

func orderByKey(ctx context.Context, q sqlx.QueryerContext, key string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.idempotency_key = $1`

	var o model.Order
	if err := sqlx.GetContext(ctx, q, &o, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order by key: %w", err)
	}

	items, err := loadItems(ctx, q, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return &o, nil
}

type orderRow struct {
	model.Order
	CustomerTelegramID string `db:"customer_telegram_id"`
	CustomerLanguage   string `db:"customer_language"`
	CustomerPhone      string `db:"customer_phone"`
	CustomerFullName   string `db:"customer_full_name"`
	CustomerUsername   string `db:"customer_username"`
}

func (r orderRow) order() model.Order {
	o := r.Order
	o.Customer = model.UserProfile{
		ID:         o.UserID,
		TelegramID: r.CustomerTelegramID,
		Language:   r.CustomerLanguage,
		Phone:      r.CustomerPhone,
		FullName:   r.CustomerFullName,
		Username:   r.CustomerUsername,
	}
	return o
}

const orderWithCustomer = `SELECT ` + orderColumns + `,
		u.telegram_id AS customer_telegram_id,
		COALESCE(u.language, '') AS customer_language,
		COALESCE(u.phone, '') AS customer_phone,
		COALESCE(u.full_name, '') AS customer_full_name,
		COALESCE(u.username, '') AS customer_username
	FROM orders o
	JOIN user_profiles u ON u.id = o.user_id`

func (s *PostgresStorage) selectOrders(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]model.Order, error) {
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	items, err := loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]model.Order, len(rows))
	for i, r := range rows {
		orders[i] = r.order()
		orders[i].Items = items[r.ID]
	}
	return orders, nil
}

// loadItems reads the items of orderIDs with the product names stored at
// order time.
func loadItems(ctx context.Context, q sqlx.QueryerContext, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	const query = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.name_uz, oi.name_ru, oi.name_en,
			oi.quantity, oi.price
		FROM order_items oi
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`

	var items []model.OrderItem
	if err := sqlx.SelectContext(ctx, q, &items, query, pq.Array(orderIDs)); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}

	byOrder := make(map[int64][]model.OrderItem, len(orderIDs))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, nil
}

// OrdersByTelegramID lists a customer's orders, newest first.
func (s *PostgresStorage) OrdersByTelegramID(ctx context.Context, telegramID string) ([]model.Order, error) {
	query := orderWithCustomer + ` WHERE u.telegram_id = $1 ORDER BY o.created_at DESC, o.id DESC`
	return s.selectOrders(ctx, s.db, query, telegramID)
}

func (s *PostgresStorage) AllOrders(ctx context.Context) ([]model.Order, error) {
	query := orderWithCustomer + ` ORDER BY o.created_at DESC, o.id DESC`
	return s.selectOrders(ctx, s.db, query)
}

// UpdateOrderStatus moves an order to next under a row lock. It returns the
// updated order and the status it had before.
func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, orderID int64, next model.OrderStatus) (*model.Order, model.OrderStatus, error) {
	var (
		updated  *model.Order
		previous model.OrderStatus
	)

	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			var current model.OrderStatus
			err := tx.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return fmt.Errorf("lock order: %w", err)
			}

			if !current.CanTransitionTo(next) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
			}

			if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, next); err != nil {
				return fmt.Errorf("update order status: %w", err)
			}

			orders, err := s.selectOrders(ctx, tx, orderWithCustomer+` WHERE o.id = $1`, orderID)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				return ErrNotFound
			}

			updated, previous = &orders[0], current
			return nil
		})
	})
	if err != nil {
		return nil, "", err
	}
	return updated, previous, nil
}

func (s *PostgresStorage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// withRetry reruns fn on serialization failures, deadlocks and on a race
// for the same idempotency key.
func (s *PostgresStorage) withRetry(ctx context.Context, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	return backoff.RetryNotify(
		func() error {
			err := fn()
			if err == nil || isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		},
		backoff.WithContext(policy, ctx),
		func(err error, d time.Duration) {
			s.logger.Warn("Retrying transaction", zap.Error(err), zap.Duration("next_attempt_in", d))
		},
	)
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch string(pqErr.Code) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	case pgerrcode.UniqueViolation:
		return pqErr.Constraint == idempotencyConstraint
	}
	return false
}
