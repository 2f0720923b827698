package domain_test

import (
	"testing"

	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstraintRejectsSameSeries(t *testing.T) {
	id := uuid.New()
	_, err := domain.NewConstraint(domain.ConstraintNoOverlap,
		domain.ConstraintTarget{SeriesID: id}, domain.ConstraintTarget{SeriesID: id})
	assert.ErrorIs(t, err, domain.ErrConstraintSameTarget)
}

func TestResolveSeriesPairsExpandsTags(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	constraint, err := domain.NewConstraint(domain.ConstraintMustBeBefore,
		domain.ConstraintTarget{SeriesID: a},
		domain.ConstraintTarget{Tag: "chores"})
	require.NoError(t, err)

	tagIndex := map[string][]uuid.UUID{"chores": {b, c}}
	pairs := constraint.ResolveSeriesPairs(tagIndex)

	assert.ElementsMatch(t, [][2]uuid.UUID{{a, b}, {a, c}}, pairs)
}

func TestResolveSeriesPairsSkipsSelfPairing(t *testing.T) {
	a := uuid.New()
	constraint, err := domain.NewConstraint(domain.ConstraintNoOverlap,
		domain.ConstraintTarget{Tag: "x"}, domain.ConstraintTarget{Tag: "x"})
	require.NoError(t, err)

	pairs := constraint.ResolveSeriesPairs(map[string][]uuid.UUID{"x": {a}})
	assert.Empty(t, pairs)
}
