package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Scope narrows a query; it composes with gorm's Scopes.
type Scope = func(*gorm.DB) *gorm.DB

// Repository is the generic persistence surface shared by every document and
// stock entity. Domain packages embed it and add only the queries their
// business rules need.
type Repository[T any] struct {
	Base
}

// New returns a Repository for T bound to db.
func New[T any](db *gorm.DB) Repository[T] {
	return Repository[T]{Base: NewBase(db)}
}

// WithTx rebinds the repository to tx. A nil tx keeps the current handle.
func (r Repository[T]) WithTx(tx *gorm.DB) Repository[T] {
	if tx == nil {
		return r
	}
	return New[T](tx)
}

func (r Repository[T]) FindByID(ctx context.Context, id uint, preloads ...string) (*T, error) {
	var row T
	q := r.DB(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIDForUpdate loads a row holding a row-level write lock until the
// surrounding transaction ends.
func (r Repository[T]) FindByIDForUpdate(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := r.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r Repository[T]) Create(ctx context.Context, row *T) error {
	return r.DB(ctx).Create(row).Error
}

// Save persists every column of row, without touching associations.
func (r Repository[T]) Save(ctx context.Context, row *T) error {
	return r.DB(ctx).Omit(clause.Associations).Save(row).Error
}

func (r Repository[T]) Updates(ctx context.Context, id uint, values map[string]any) error {
	var row T
	return r.DB(ctx).Model(&row).Where("id = ?", id).Updates(values).Error
}

// Delete soft-deletes the row when T carries a DeletedAt column.
func (r Repository[T]) Delete(ctx context.Context, id uint) error {
	var row T
	res := r.DB(ctx).Delete(&row, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUnscoped counts rows matching the scopes, soft-deleted rows included.
func (r Repository[T]) CountUnscoped(ctx context.Context, scopes ...Scope) (int64, error) {
	var (
		row   T
		count int64
	)
	if err := r.DB(ctx).Unscoped().Model(&row).Scopes(scopes...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListPage returns one created_at DESC, id DESC window over the rows matching scopes.
func (r Repository[T]) ListPage(ctx context.Context, params pagination.Params, key func(T) pagination.Cursor, scopes ...Scope) (pagination.Page[T], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[T]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	q := r.DB(ctx).Scopes(scopes...)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []T
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return pagination.Page[T]{}, err
	}
	return pagination.BuildPage(rows, params.Limit, key), nil
}

// MapError converts persistence errors into typed API errors: a missing row
// becomes NOT_FOUND naming the entity, typed errors pass through, anything
// else is a dependency failure.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", entity))
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s lookup failed", entity))
}
