package domain

import "strings"

// ValidPostID отсекает id, которые не могли быть выданы загрузкой.
// Точка запрещена: суффиксы вида "abc.png" или "../x" не должны доходить до хранилищ.
func ValidPostID(id string) bool {
	if id == "" || strings.ContainsRune(id, '.') {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}
