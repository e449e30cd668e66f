package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salesintel/internal/errors"
	"salesintel/internal/shared/testutil"
)

func TestFindSheet(t *testing.T) {
	tests := []struct {
		name       string
		sheets     []string
		candidates []string
		want       string
		wantOK     bool
	}{
		{
			name:       "case insensitive match",
			sheets:     []string{"Summary", "ORDER BOOK"},
			candidates: OrderSheets,
			want:       "ORDER BOOK",
			wantOK:     true,
		},
		{
			name:       "candidate priority wins over sheet order",
			sheets:     []string{"Orders", "Orderbook"},
			candidates: OrderSheets,
			want:       "Orderbook",
			wantOK:     true,
		},
		{
			name:       "single sheet fallback",
			sheets:     []string{"Data"},
			candidates: OrderSheets,
			want:       "Data",
			wantOK:     true,
		},
		{
			name:       "no match among several sheets",
			sheets:     []string{"X", "Y"},
			candidates: ArticleSheets,
			wantOK:     false,
		},
		{
			name:       "surrounding whitespace ignored",
			sheets:     []string{" Kunder ", "Artikel"},
			candidates: CustomerSheets,
			want:       " Kunder ",
			wantOK:     true,
		},
		{
			name:       "empty workbook",
			candidates: OrderSheets,
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindSheet(tt.sheets, tt.candidates)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchSheetHasNoFallback(t *testing.T) {
	_, ok := MatchSheet([]string{"Data"}, MasterCustomerSheets)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		wb := testutil.NewMemoryWorkbook().AddSheet("Intro").AddSheet("Artikel")
		name, err := Resolve(wb, ArticleSheets)
		require.NoError(t, err)
		assert.Equal(t, "Artikel", name)
	})

	t.Run("not found carries present sheets", func(t *testing.T) {
		wb := testutil.NewMemoryWorkbook().AddSheet("X").AddSheet("Y")
		_, err := Resolve(wb, ArticleSheets)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSheetNotFound))

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, []string{"X", "Y"}, appErr.Context["sheets"])
		assert.Equal(t, ArticleSheets, appErr.Context["candidates"])
	})
}
