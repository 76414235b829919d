package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Guard describes a conditional status update:
//
//	UPDATE <Table> SET <Column> = To, updated_at = now(), <Set...>
//	WHERE id = ID AND <Column> IN (From...) AND <Where>
//
// Set and Where use ? placeholders; they are rebound to $n together with
// the generated ones.
type Guard struct {
	Table     string
	Column    string
	ID        string
	From      []string
	To        string
	Set       []string
	SetArgs   []any
	Where     string
	WhereArgs []any
}

// TryTransition applies g and returns the number of affected rows. Zero rows
// means the entity is absent, out of scope, or not in an expected state.
func TryTransition(ctx context.Context, ex Execer, g Guard) (int64, error) {
	query, args, err := g.Build()
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s transition to %s: %w", g.Table, g.To, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s transition rows affected: %w", g.Table, err)
	}
	return n, nil
}

// Build renders the guarded update and its positional arguments.
func (g Guard) Build() (string, []any, error) {
	if g.Table == "" || g.ID == "" || g.To == "" {
		return "", nil, fmt.Errorf("guard: table, id and target are required")
	}
	if len(g.From) == 0 {
		return "", nil, fmt.Errorf("guard %s: no source states", g.Table)
	}
	col := g.Column
	if col == "" {
		col = "status"
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(g.Table)
	b.WriteString(" SET ")
	b.WriteString(col)
	b.WriteString(" = ?, updated_at = now()")
	for _, s := range g.Set {
		b.WriteString(", ")
		b.WriteString(s)
	}
	b.WriteString(" WHERE id = ? AND ")
	b.WriteString(col)
	b.WriteString(" IN (")
	b.WriteString(Placeholders(len(g.From)))
	b.WriteString(")")
	if g.Where != "" {
		b.WriteString(" AND (")
		b.WriteString(g.Where)
		b.WriteString(")")
	}

	args := make([]any, 0, 2+len(g.SetArgs)+len(g.From)+len(g.WhereArgs))
	args = append(args, g.To)
	args = append(args, g.SetArgs...)
	args = append(args, g.ID)
	for _, f := range g.From {
		args = append(args, f)
	}
	args = append(args, g.WhereArgs...)
	return Rebind(b.String()), args, nil
}

// Placeholders returns n comma separated ? markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Rebind converts ? markers into Postgres positional parameters.
// Queries must not contain literal question marks.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// StringArgs converts literals into query arguments.
func StringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
