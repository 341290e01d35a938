package repository

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
)

func TestQueryBuilder(t *testing.T) {
	t.Run("applies aliases and passes unknown columns through", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.AddCondition("location", "HANOI")
		qb.AddCondition("state", "AVAILABLE")

		built := qb.BuildConditions(map[string]string{"location": "a.location"})

		assert.Equal(t, goqu.Ex{"a.location": "HANOI", "state": "AVAILABLE"}, built)
	})

	t.Run("adding the same column twice keeps the latest value", func(t *testing.T) {
		qb := NewQueryBuilder()
		qb.AddCondition("state", "AVAILABLE")
		qb.AddCondition("state", "ASSIGNED")

		built := qb.BuildConditions(nil)

		assert.Equal(t, goqu.Ex{"state": "ASSIGNED"}, built)
	})
}
