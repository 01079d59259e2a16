package orm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{err: nil, want: CategoryUnknown},
		{err: errors.New("other"), want: CategoryUnknown},
		{err: ErrConnectionClosed, want: CategoryConnection},
		{err: fmt.Errorf("%w: %w", ErrDuplicateKey, errNative), want: CategoryConstraint},
		{err: ErrObjectNotFound, want: CategoryNotFound},
		{err: ErrTransactionActive, want: CategoryTransaction},
		{err: ErrTransactionFinalized, want: CategoryTransaction},
		{err: ErrNoTransaction, want: CategoryTransaction},
		{err: &PreparationError{Text: "SELECT", Err: errNative}, want: CategoryPreparation},
		{err: fmt.Errorf("column %q: %w", "a", ErrInvalidParameter), want: CategoryParameter},
		{err: &DatabaseError{Op: "execute", Err: errNative}, want: CategoryDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.err))
		})
	}
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(ErrObjectNotFound))
	assert.True(t, IsPermanent(ErrDuplicateKey))
	assert.True(t, IsPermanent(&PreparationError{Err: errNative}))
	assert.False(t, IsPermanent(&DatabaseError{Op: "execute", Err: errNative}))
	assert.False(t, IsPermanent(ErrConnectionClosed))
	assert.False(t, IsPermanent(nil))
}

func TestIsRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialect := NewMockDialect(ctrl)

	deadlock := &DatabaseError{Op: "execute", Code: 1213, Err: errNative}
	dialect.EXPECT().IsRetryable(deadlock).Return(true)

	assert.True(t, IsRetryable(dialect, deadlock))
	assert.True(t, IsRetryable(nil, ErrConnectionClosed))
	assert.False(t, IsRetryable(nil, deadlock))
	assert.False(t, IsRetryable(dialect, ErrObjectNotFound))
	assert.False(t, IsRetryable(dialect, nil))
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, TranslateError(nil))
	assert.Equal(t, ErrObjectNotFound, TranslateError(gorm.ErrRecordNotFound))
	assert.Equal(t, ErrDuplicateKey, TranslateError(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.Equal(t, ErrNoTransaction, TranslateError(gorm.ErrInvalidTransaction))
	assert.ErrorIs(t, TranslateError(gorm.ErrInvalidData), ErrInvalidParameter)
	assert.Equal(t, errNative, TranslateError(errNative))
}

func TestDatabaseErrorMessage(t *testing.T) {
	assert.Equal(t, "orm: fetch failed: native failure", (&DatabaseError{Op: "fetch", Err: errNative}).Error())
	assert.Equal(t, "orm: execute failed (1062): native failure", (&DatabaseError{Op: "execute", Code: 1062, Err: errNative}).Error())
	assert.Equal(t, `orm: prepare "SELECT": native failure`, (&PreparationError{Text: "SELECT", Err: errNative}).Error())
}

func TestNewDatabaseErrorKeepsExisting(t *testing.T) {
	inner := &DatabaseError{Op: "fetch", Err: errNative}
	err := newDatabaseError(QuestionDialect{}, "execute", fmt.Errorf("wrapped: %w", inner))

	var got *DatabaseError
	assert.ErrorAs(t, err, &got)
	assert.Same(t, inner, got)
	assert.Nil(t, newDatabaseError(nil, "execute", nil))
}
