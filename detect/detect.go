// Package detect implements the Format Detector (spec §4.2): it
// classifies a decoded dump buffer into one of the supported dialects by
// signature, consulting the file suffix first.
package detect

import (
	"path/filepath"
	"strings"
)

// Format identifies the dump dialect.
type Format string

const (
	MSSQL    Format = "mssql"
	MySQL    Format = "mysql"
	Postgres Format = "postgres"
	Oracle   Format = "oracle"
	SQLite   Format = "sqlite"
	Surreal  Format = "surreal"
	Unknown  Format = "unknown"
)

// Detect classifies content using path's suffix and a sequence of
// textual signatures, in the precedence order specified in spec §4.2:
// surreal (by suffix) > oracle > postgres > sqlite > mssql > mysql.
func Detect(path, content string) Format {
	if strings.EqualFold(filepath.Ext(path), ".surql") {
		return Surreal
	}
	if isOracle(content) {
		return Oracle
	}
	if isPostgres(content) {
		return Postgres
	}
	if isSQLite(content) {
		return SQLite
	}
	if isMSSQL(content) {
		return MSSQL
	}
	if isMySQL(content) {
		return MySQL
	}
	return Unknown
}

func containsAny(content string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(content, n) {
			return true
		}
	}
	return false
}

func isOracle(content string) bool {
	if containsAny(content, "REM INSERTING into", "SET DEFINE OFF;", "Insert into ") {
		return true
	}
	hits := 0
	for _, n := range []string{`CREATE TABLE "`, "PCTFREE", "TABLESPACE", "ALTER SESSION SET EVENTS"} {
		if strings.Contains(content, n) {
			hits++
		}
	}
	return hits >= 2
}

func isPostgres(content string) bool {
	if strings.Contains(content, "COPY ") && strings.Contains(content, "FROM stdin;") {
		return true
	}
	return containsAny(content,
		"standard_conforming_strings",
		"ALTER TABLE ONLY",
		"CREATE TYPE",
		"CREATE SEQUENCE",
	)
}

func isSQLite(content string) bool {
	if strings.HasPrefix(content, "PRAGMA foreign_keys=OFF;") {
		return true
	}
	if strings.Contains(content, "sqlite_sequence") {
		return true
	}
	if strings.Contains(content, "BEGIN TRANSACTION;") && strings.Contains(content, "INSERT INTO") &&
		!containsAny(content, "InnoDB", "TABLESPACE") {
		return true
	}
	return false
}

func isMSSQL(content string) bool {
	if containsAny(content,
		"SET ANSI_NULLS ON",
		"SET QUOTED_IDENTIFIER ON",
		"CREATE TABLE [dbo].",
		"INSERT [dbo].",
		"WITH (PAD_INDEX = OFF",
	) {
		return true
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "GO" {
			return true
		}
	}
	return false
}

func isMySQL(content string) bool {
	return containsAny(content,
		"ENGINE=InnoDB",
		"LOCK TABLES",
		"/*!40",
		"AUTO_INCREMENT",
		"COLLATE=utf8mb4",
	)
}
