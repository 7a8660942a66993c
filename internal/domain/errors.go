package domain

import "errors"

// Бизнес-ошибки, маппятся на HTTP-коды в v1.MapDomainError
var (
	ErrBadParams    = errors.New("bad_params")    // 400
	ErrUnauth       = errors.New("unauthorized")  // 401
	ErrNotFound     = errors.New("not_found")     // 404
	ErrUnknownField = errors.New("unknown_field") // 404, неизвестное имя multipart-части
	ErrTooLarge     = errors.New("too_large")     // 413
	ErrConflict     = errors.New("conflict")      // дубликат id при вставке, наружу не уходит
	ErrUnexpected   = errors.New("unexpected")    // 500
)
