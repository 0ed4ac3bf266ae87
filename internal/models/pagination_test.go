package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsNormalize(t *testing.T) {
	p := ListParams{Page: 0, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = ListParams{Page: 3, PageSize: 0}
	p.Normalize()
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 40, p.Offset())
}

func TestListParamsNormalizeClampsHugePages(t *testing.T) {
	p := ListParams{Page: 100_000_000_000_000_000, PageSize: 100}
	p.Normalize()
	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, (MaxPage-1)*100, p.Offset())
	assert.Positive(t, p.Offset())
}

func TestNewPagination(t *testing.T) {
	pg := NewPagination(ListParams{Page: 2, PageSize: 10}, 21)
	assert.Equal(t, &Pagination{Page: 2, Limit: 10, Total: 21, TotalPages: 3}, pg)
}
