package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// RoleList набор ролей пользователя. В БД хранится как текст через запятую.
type RoleList []Role

func (r RoleList) Value() (driver.Value, error) {
	parts := make([]string, 0, len(r))
	for _, role := range r {
		parts = append(parts, string(role))
	}
	return strings.Join(parts, ","), nil
}

func (r *RoleList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*r = nil
		return nil
	default:
		return fmt.Errorf("unsupported role list type %T", src)
	}
	if raw == "" {
		*r = nil
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make(RoleList, 0, len(parts))
	for _, p := range parts {
		out = append(out, Role(strings.TrimSpace(p)))
	}
	*r = out
	return nil
}
