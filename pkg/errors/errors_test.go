package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplateWithErrorsIs(t *testing.T) {
	err := fmt.Errorf("add points: %w", DateExpired(60))
	assert.True(t, errors.Is(err, ErrDateExpired))
	assert.False(t, errors.Is(err, ErrNonWorkingDay))
}

func TestDetailsAreCopiedNotShared(t *testing.T) {
	first := CategoryLimitExceeded(10)
	second := CategoryLimitExceeded(30)

	cap1, ok := first.Detail("cap")
	require.True(t, ok)
	cap2, _ := second.Detail("cap")
	assert.Equal(t, 10, cap1)
	assert.Equal(t, 30, cap2)
	assert.Nil(t, ErrCategoryLimitExceeded.Details)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("connection refused"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
}

func TestNotEnoughPointsCarriesShortfall(t *testing.T) {
	appErr := NotEnoughPoints(2, 48)
	shortfall, ok := appErr.Detail("shortfall")
	require.True(t, ok)
	assert.Equal(t, 2, shortfall)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}
