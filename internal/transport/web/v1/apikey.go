package v1

import (
	"net/http"
	"strings"
)

// HeaderAPIKey: единственное место, откуда берётся ключ загрузки
const HeaderAPIKey = "X-API-Key"

func APIKeyFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderAPIKey))
}
