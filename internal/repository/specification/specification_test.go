package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dry-run statement rendering needs no live connection
func render(t *testing.T, specs ...Specification) string {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=rag dbname=rag sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	q := db.Table("memory_records")
	for _, s := range specs {
		q = s.Apply(q)
	}
	var out []map[string]interface{}
	stmt := q.Find(&out).Statement
	return stmt.SQL.String()
}

func TestSpecificationsRender(t *testing.T) {
	tests := []struct {
		name  string
		specs []Specification
		want  []string
	}{
		{name: "session", specs: []Specification{BySession{Session: "s1"}}, want: []string{"session = $1"}},
		{name: "hashes", specs: []Specification{ByTextHashes{Hashes: []string{"a", "b"}}}, want: []string{"text_hash IN ($1,$2)"}},
		{name: "role", specs: []Specification{ByRole{Role: "user"}}, want: []string{"role = $1"}},
		{name: "insertion order", specs: []Specification{InsertionOrder{}}, want: []string{"ORDER BY created_at ASC,id ASC"}},
		{name: "listing", specs: []Specification{BySession{Session: "s1"}, ByRole{Role: "assistant"}, InsertionOrder{}}, want: []string{"session = $1", "role = $2", "ORDER BY created_at ASC,id ASC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := render(t, tt.specs...)
			for _, w := range tt.want {
				assert.Contains(t, sql, w)
			}
		})
	}
}
