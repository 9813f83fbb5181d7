// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog implements the Inkwell use cases: identity, authoring,
// publication, tagging, discussion and the public listings. Each mutating
// use case runs in one transaction so it either fully applies or fails.
package blog

import (
	"database/sql"
	"time"
)

// Service runs use cases against the database.
type Service struct {
	db      *sql.DB
	perPage int
	now     func() time.Time
}

// NewService creates a Service. perPage below 1 falls back to DefaultPerPage.
func NewService(db *sql.DB, perPage int) *Service {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &Service{db: db, perPage: perPage, now: time.Now}
}
