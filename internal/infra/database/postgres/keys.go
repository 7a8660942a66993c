package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kalkafox/ionia-img/internal/domain"
)

func (r *PGRepo) HasKey(ctx context.Context, key string) (bool, error) {
	q := r.qb().Select("1").
		Prefix("SELECT EXISTS (").
		From(r.table("api_keys")).
		Where(sq.Eq{"key": key}).
		Suffix(")")

	// сам ключ в лог не пишем, только запрос
	sqlStr, args, _ := q.ToSql()
	r.logSQL("HasKey", sqlStr, args)

	var ok bool
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("has key: %w", err)
	}
	return ok, nil
}

func (r *PGRepo) AddKey(ctx context.Context, key string) error {
	q := r.qb().Insert(r.table("api_keys")).
		Columns("key").
		Values(key).
		Suffix("ON CONFLICT (key) DO NOTHING")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("AddKey", sqlStr, args)

	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert key: %w", err)
	}
	return nil
}

func (r *PGRepo) SiteConfig(ctx context.Context) (domain.SiteConfig, bool, error) {
	q := r.qb().Select("url_prefix").
		From(r.table("app_config")).
		Where(sq.Eq{"singleton": true})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("SiteConfig", sqlStr, args)

	var cfg domain.SiteConfig
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&cfg.URLPrefix); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SiteConfig{}, false, nil
		}
		return domain.SiteConfig{}, false, fmt.Errorf("select config: %w", err)
	}
	return cfg, true, nil
}

func (r *PGRepo) SetURLPrefix(ctx context.Context, prefix string) error {
	q := r.qb().Insert(r.table("app_config")).
		Columns("singleton", "url_prefix").
		Values(true, prefix).
		Suffix("ON CONFLICT (singleton) DO UPDATE SET url_prefix = EXCLUDED.url_prefix")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("SetURLPrefix", sqlStr, args)

	if _, err := r.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert config: %w", err)
	}
	return nil
}
