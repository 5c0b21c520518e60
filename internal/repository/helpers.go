package repository

import "strings"

// sanitizeSortColumn maps external sort keys onto whitelisted columns.
func sanitizeSortColumn(requested string, allowed map[string]string, fallback string) string {
	if col, ok := allowed[strings.ToLower(strings.TrimSpace(requested))]; ok {
		return col
	}
	return fallback
}

func sanitizeSortOrder(order string) string {
	if strings.EqualFold(order, "asc") {
		return "ASC"
	}
	return "DESC"
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
