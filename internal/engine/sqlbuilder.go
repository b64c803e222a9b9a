package engine

import "strings"

// clause is one SQL predicate fragment with its bound arguments in placeholder order.
type clause struct {
	expr string
	args []any
}

// inClause renders "column IN (?, ?, ...)" with one bound argument per value.
// This is the only place filter values enter a query. It returns ok=false for
// an empty list so callers skip the filter entirely.
func inClause(column string, values []string) (clause, bool) {
	if len(values) == 0 {
		return clause{}, false
	}
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return clause{
		expr: column + " IN (" + strings.Join(placeholders, ", ") + ")",
		args: args,
	}, true
}

// selectBuilder assembles a single aggregate SELECT over the test case relation.
type selectBuilder struct {
	columns []string
	where   []clause
	groupBy []string
	having  []clause
	orderBy []string
	limit   int
}

func (b *selectBuilder) addWhere(expr string, args ...any) {
	b.where = append(b.where, clause{expr: expr, args: args})
}

func (b *selectBuilder) addWhereIn(column string, values []string) {
	if c, ok := inClause(column, values); ok {
		b.where = append(b.where, c)
	}
}

func (b *selectBuilder) addHaving(expr string, args ...any) {
	b.having = append(b.having, clause{expr: expr, args: args})
}

// build renders the statement and collects arguments in the order their
// placeholders appear: WHERE, HAVING, LIMIT.
func (b *selectBuilder) build() (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT\n  ")
	sb.WriteString(strings.Join(b.columns, ",\n  "))
	sb.WriteString("\nFROM test_cases tc\n")
	sb.WriteString("JOIN test_runs tr ON tc.run_id = tr.id\n")
	sb.WriteString("JOIN projects p ON tr.project_id = p.id")

	writeClauses(&sb, "WHERE", b.where, &args)
	if len(b.groupBy) > 0 {
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	writeClauses(&sb, "HAVING", b.having, &args)
	if len(b.orderBy) > 0 {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString("\nLIMIT ?")
		args = append(args, b.limit)
	}
	return sb.String(), args
}

func writeClauses(sb *strings.Builder, keyword string, clauses []clause, args *[]any) {
	for i, c := range clauses {
		if i == 0 {
			sb.WriteString("\n" + keyword + " ")
		} else {
			sb.WriteString("\n  AND ")
		}
		sb.WriteString(c.expr)
		*args = append(*args, c.args...)
	}
}

// countIf renders SUM(CASE WHEN tc.status = '<status>' THEN 1 ELSE 0 END).
// status is always one of the fixed case outcomes, never user input.
func countIf(status, alias string) string {
	return "SUM(CASE WHEN tc.status = '" + status + "' THEN 1 ELSE 0 END) AS " + alias
}
