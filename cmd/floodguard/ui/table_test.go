package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableViewEmpty(t *testing.T) {
	tbl := NewTable("Projects", "ID", "Cost")
	assert.Empty(t, tbl.View(DefaultStyles()))
}

func TestTableViewAlignsColumns(t *testing.T) {
	tbl := NewTable("Projects", "ID", "Cost")
	tbl.AddRow("P-1", "1,000")
	tbl.AddRow("P-22222", "5")

	out := tbl.View(DefaultStyles())
	require.NotEmpty(t, out)
	assert.Contains(t, out, "Projects")
	assert.Contains(t, out, "P-22222")

	var rows []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "|") {
			rows = append(rows, line)
		}
	}
	require.Len(t, rows, 3)
	for _, r := range rows[1:] {
		assert.Equal(t, strings.Index(rows[0], "|"), strings.Index(r, "|"))
	}
}

func TestTableTruncatesCells(t *testing.T) {
	tbl := NewTable("", "Description")
	tbl.MaxCell = 8
	tbl.AddRow("Construction of flood control structure")
	assert.Equal(t, "Constru…", tbl.Rows[0][0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab…", Truncate("abcd", 3))
	assert.Equal(t, "…", Truncate("abcd", 1))
	assert.Equal(t, "abcd", Truncate("abcd", 0))
	assert.Equal(t, "Pa…", Truncate("Pañgasinan", 3))
}
