package repository

import (
	"github.com/doug-martin/goqu/v9"
)

type condition struct {
	column string
	value  interface{}
}

// queryBuilderImpl keeps conditions in insertion order so the generated SQL
// is stable across runs. Adding the same column twice overwrites the value.
type queryBuilderImpl struct {
	conditions []condition
}

func NewQueryBuilder() QueryBuilder {
	return &queryBuilderImpl{}
}

func (q *queryBuilderImpl) AddCondition(key string, value interface{}) {
	for i := range q.conditions {
		if q.conditions[i].column == key {
			q.conditions[i].value = value
			return
		}
	}
	q.conditions = append(q.conditions, condition{column: key, value: value})
}

func (q *queryBuilderImpl) BuildConditions(aliases map[string]string) goqu.Ex {
	built := goqu.Ex{}
	for _, cond := range q.conditions {
		column := cond.column
		if alias, ok := aliases[column]; ok {
			column = alias
		}
		built[column] = cond.value
	}
	return built
}
