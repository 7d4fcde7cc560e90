package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSurrealBySuffix(t *testing.T) {
	assert.Equal(t, Surreal, Detect("dump.surql", "anything at all"))
}

func TestDetectOracle(t *testing.T) {
	assert.Equal(t, Oracle, Detect("dump.sql", "REM INSERTING into EMPLOYEES\nInsert into EMPLOYEES (ID) values (1);"))
}

func TestDetectPostgres(t *testing.T) {
	content := "COPY public.u (a,b) FROM stdin;\n1\tx\n\\.\n"
	assert.Equal(t, Postgres, Detect("dump.sql", content))
}

func TestDetectSQLite(t *testing.T) {
	assert.Equal(t, SQLite, Detect("dump.sql", "PRAGMA foreign_keys=OFF;\nBEGIN TRANSACTION;\n"))
}

func TestDetectMSSQL(t *testing.T) {
	assert.Equal(t, MSSQL, Detect("dump.sql", "SET ANSI_NULLS ON\nGO\nINSERT [dbo].[X] VALUES (1)"))
}

func TestDetectMySQL(t *testing.T) {
	assert.Equal(t, MySQL, Detect("dump.sql", "CREATE TABLE t (id INT) ENGINE=InnoDB;\nLOCK TABLES t WRITE;"))
}

func TestDetectUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Detect("dump.bin", "some opaque content"))
}

func TestDetectPrecedenceOracleBeforePostgres(t *testing.T) {
	// Oracle's "Insert into " signature should win even if a postgres hint appears later.
	content := "Insert into T (A) values (1);\nstandard_conforming_strings = on"
	assert.Equal(t, Oracle, Detect("dump.sql", content))
}
