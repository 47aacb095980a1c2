package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextOccurrence(t *testing.T) {
	t.Run("first of month from mid-month anchor", func(t *testing.T) {
		ref := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

		next, err := NextOccurrence("0 0 1 * *", ref)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("advancing from an occurrence lands on the next one", func(t *testing.T) {
		ref := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		next, err := NextOccurrence("0 0 1 * *", ref)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("result is strictly after the reference", func(t *testing.T) {
		refs := []time.Time{
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		}
		for _, ref := range refs {
			next, err := NextOccurrence("* * * * *", ref)
			assert.NoError(t, err)
			assert.True(t, next.After(ref), "next %v must be after ref %v", next, ref)
		}
	})

	t.Run("deterministic for equal inputs", func(t *testing.T) {
		ref := time.Date(2024, 5, 17, 8, 0, 0, 0, time.UTC)

		first, err := NextOccurrence("*/15 9-17 * * 1-5", ref)
		assert.NoError(t, err)
		second, err := NextOccurrence("*/15 9-17 * * 1-5", ref)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("step range and list extensions", func(t *testing.T) {
		ref := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // a Monday

		next, err := NextOccurrence("0 6,18 * * *", ref)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC), next)

		next, err = NextOccurrence("*/30 * * * *", ref.Add(10*time.Minute))
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 4, 0, 30, 0, 0, time.UTC), next)
	})

	t.Run("invalid expression", func(t *testing.T) {
		_, err := NextOccurrence("not a cron", time.Now())
		assert.ErrorIs(t, err, ErrInvalidExpression)

		_, err = NextOccurrence("61 * * * *", time.Now())
		assert.ErrorIs(t, err, ErrInvalidExpression)
	})

	t.Run("unsatisfiable expression", func(t *testing.T) {
		_, err := NextOccurrence("0 0 30 2 *", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, ErrUnsatisfiable)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("0 0 1 * *"))
	assert.NoError(t, Validate("@daily"))
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("0 0 30 2 *"))
}
