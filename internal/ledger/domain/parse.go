package domain

import (
	"strconv"
	"strings"
)

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
