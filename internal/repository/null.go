package repository

import "database/sql"

// nullInt64 は*int64をsql.NullInt64に変換する。
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// nullInt64Value はsql.NullInt64を*int64に変換する。無効な場合はnilを返す。
func nullInt64Value(nv sql.NullInt64) *int64 {
	if !nv.Valid {
		return nil
	}
	v := nv.Int64
	return &v
}

// nullString は空文字列をNULLとして扱うsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringを文字列に変換する。無効な場合は空文字列を返す。
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
