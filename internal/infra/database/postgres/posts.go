package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kalkafox/ionia-img/internal/domain"
)

const pgUniqueViolation = "23505"

func (r *PGRepo) CreatePost(ctx context.Context, p domain.Post) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	q := r.qb().Insert(r.table("posts")).
		Columns("id", "blob_handle", "mime_type", "size_bytes", "created_at").
		Values(p.ID, p.BlobHandle.String(), p.MIME, p.SizeBytes, createdAt.UTC())

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreatePost", sqlStr, args)

	start := time.Now()
	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		if isUniqueViolation(err) {
			r.logger.Printf("CreatePost duplicate id=%s", p.ID)
			return domain.ErrConflict
		}
		r.logger.Printf("CreatePost exec error after %s: %v", time.Since(start), err)
		return fmt.Errorf("insert post: %w", err)
	}
	r.logger.Printf("CreatePost ok in %s id=%s", time.Since(start), p.ID)
	return nil
}

func (r *PGRepo) PostByID(ctx context.Context, id domain.PostID) (domain.Post, error) {
	q := r.qb().Select("id", "blob_handle", "mime_type", "size_bytes", "created_at").
		From(r.table("posts")).
		Where(sq.Eq{"id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostByID", sqlStr, args)

	start := time.Now()
	var (
		out    domain.Post
		handle string
	)
	err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&out.ID, &handle, &out.MIME, &out.SizeBytes, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, domain.ErrNotFound
		}
		r.logger.Printf("PostByID scan error after %s: %v", time.Since(start), err)
		return domain.Post{}, fmt.Errorf("select post: %w", err)
	}
	out.BlobHandle = domain.BlobHandle(handle)
	r.logger.Printf("PostByID ok in %s id=%s", time.Since(start), id)
	return out, nil
}

func (r *PGRepo) PostExists(ctx context.Context, id domain.PostID) (bool, error) {
	q := r.qb().Select("1").
		Prefix("SELECT EXISTS (").
		From(r.table("posts")).
		Where(sq.Eq{"id": id}).
		Suffix(")")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostExists", sqlStr, args)

	var ok bool
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("post exists: %w", err)
	}
	return ok, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
