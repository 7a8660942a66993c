package domain

// Коды error.code в конверте ответа
const (
	ErrCodeBadParams    = 1000
	ErrCodeUnauth       = 1001
	ErrCodeNotFound     = 1002
	ErrCodeUnknownField = 1003
	ErrCodeTooLarge     = 1004
	ErrCodeUnexpected   = 1500
)
