package repository

import (
	"fmt"
	"strings"
)

// Field names a queryable product attribute. The values double as column names.
type Field string

const (
	FieldName          Field = "name"
	FieldCategoryID    Field = "category_id"
	FieldPrice         Field = "price"
	FieldStockQuantity Field = "stock_quantity"
	FieldActive        Field = "active"
	FieldCreatedAt     Field = "created_at"
	FieldUpdatedAt     Field = "updated_at"
)

// Operator is a comparison applied by a Criterion.
type Operator int

const (
	OpEq Operator = iota
	OpGte
	OpLte
	OpLt
	// OpContainsFold is a case-insensitive substring match on strings.
	OpContainsFold
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// Criterion is a single predicate over a product field.
type Criterion struct {
	Field Field
	Op    Operator
	Value any
}

func Eq(f Field, v any) Criterion { return Criterion{Field: f, Op: OpEq, Value: v} }
func Gte(f Field, v any) Criterion { return Criterion{Field: f, Op: OpGte, Value: v} }
func Lte(f Field, v any) Criterion { return Criterion{Field: f, Op: OpLte, Value: v} }
func Lt(f Field, v any) Criterion { return Criterion{Field: f, Op: OpLt, Value: v} }
func ContainsFold(f Field, s string) Criterion { return Criterion{Field: f, Op: OpContainsFold, Value: s} }

// Sort orders query results by a single field.
type Sort struct {
	Field Field
	Order SortOrder
}

// Query is a conjunction of criteria with an optional sort. A zero Query
// matches every document in store order.
type Query struct {
	Criteria []Criterion
	Sort     *Sort
}

// Where appends criteria, all of which must hold.
func (q Query) Where(c ...Criterion) Query {
	q.Criteria = append(append([]Criterion(nil), q.Criteria...), c...)
	return q
}

// OrderBy sets the result ordering.
func (q Query) OrderBy(f Field, o SortOrder) Query {
	q.Sort = &Sort{Field: f, Order: o}
	return q
}

var productColumns = map[Field]bool{
	FieldName:          true,
	FieldCategoryID:    true,
	FieldPrice:         true,
	FieldStockQuantity: true,
	FieldActive:        true,
	FieldCreatedAt:     true,
	FieldUpdatedAt:     true,
}

// toSQL renders the query as a WHERE and ORDER BY clause with positional args.
// Field names are validated against the column whitelist before being
// interpolated; values are always bound as parameters.
func (q Query) toSQL() (where, orderBy string, args []any, err error) {
	clauses := make([]string, 0, len(q.Criteria))
	for _, c := range q.Criteria {
		if !productColumns[c.Field] {
			return "", "", nil, fmt.Errorf("unsupported query field %q", c.Field)
		}
		n := len(args) + 1
		switch c.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Field, n))
			args = append(args, c.Value)
		case OpGte:
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", c.Field, n))
			args = append(args, c.Value)
		case OpLte:
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", c.Field, n))
			args = append(args, c.Value)
		case OpLt:
			clauses = append(clauses, fmt.Sprintf("%s < $%d", c.Field, n))
			args = append(args, c.Value)
		case OpContainsFold:
			s, ok := c.Value.(string)
			if !ok {
				return "", "", nil, fmt.Errorf("substring match on %q needs a string, got %T", c.Field, c.Value)
			}
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", c.Field, n))
			args = append(args, "%"+escapeLike(s)+"%")
		default:
			return "", "", nil, fmt.Errorf("unsupported operator %d", c.Op)
		}
	}

	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	if q.Sort != nil {
		if !productColumns[q.Sort.Field] {
			return "", "", nil, fmt.Errorf("unsupported sort field %q", q.Sort.Field)
		}
		order := q.Sort.Order
		if order != SortOrderAsc && order != SortOrderDesc {
			order = SortOrderAsc
		}
		orderBy = fmt.Sprintf("ORDER BY %s %s", q.Sort.Field, order)
	}

	return where, orderBy, args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
