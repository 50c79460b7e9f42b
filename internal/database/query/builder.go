// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package query provides SQL fragment builders for the database package.
//
//	wb := query.NewWhereBuilder()
//	wb.AddEquals("b.author_id", filter.AuthorID)
//	wb.AddAtLeast("b.publication_year", filter.YearFrom)
//	where, args := wb.Build()
//	// "b.author_id = ? AND b.publication_year >= ?"
package query

import (
	"fmt"
	"strings"
)

// WhereBuilder collects AND-joined conditions and their bound arguments.
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddEquals adds "column = ?" when value is non-nil.
func (wb *WhereBuilder) AddEquals(column string, value *int64) *WhereBuilder {
	if value != nil {
		wb.AddClause(column+" = ?", *value)
	}
	return wb
}

// AddAtLeast adds "column >= ?" when value is non-nil.
func (wb *WhereBuilder) AddAtLeast(column string, value *int) *WhereBuilder {
	if value != nil {
		wb.AddClause(column+" >= ?", *value)
	}
	return wb
}

// AddAtMost adds "column <= ?" when value is non-nil.
func (wb *WhereBuilder) AddAtMost(column string, value *int) *WhereBuilder {
	if value != nil {
		wb.AddClause(column+" <= ?", *value)
	}
	return wb
}

// AddIn adds "column IN (?, ...)". An empty ids slice matches nothing.
func (wb *WhereBuilder) AddIn(column string, ids []int64) *WhereBuilder {
	if len(ids) == 0 {
		return wb.AddClause("1=0")
	}
	placeholders, args := InInt64(ids)
	return wb.AddClause(fmt.Sprintf("%s IN (%s)", column, placeholders), args...)
}

// Build joins the conditions with AND. An empty builder yields "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix is Build with a leading "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// InInt64 returns "?, ?, ..." and the matching arguments for ids.
func InInt64(ids []int64) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}
