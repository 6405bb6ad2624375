package csvimport

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("strips BOM and normalizes headers", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBF Provider ,Work_Date,HOURS\nrbt@example.com,2026-10-01,7.5\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"provider", "work_date", "hours"}, p.Headers())
		assert.NoError(t, p.RequireHeaders("provider", "work_date", "hours"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("provider,hours\n\xff\xfe,1\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("missing columns are all reported", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("provider,memo\n"))
		require.NoError(t, err)
		err = p.RequireHeaders("provider", "work_date", "hours")
		var mc *MissingColumnsError
		require.True(t, errors.As(err, &mc))
		assert.Equal(t, []string{"work_date", "hours"}, mc.Columns)
		assert.EqualError(t, err, "missing required columns: work_date, hours")
	})

	t.Run("semicolon delimiter", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("provider;hours\na;1\n"), WithDelimiter(';'))
		require.NoError(t, err)
		row, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, "1", row.Get("hours"))
	})
}

func TestParser_Next(t *testing.T) {
	data := "provider,work_date,hours\n" +
		"a@example.com, 2026-10-01 ,8\n" +
		",,\n" +
		"b@example.com,2026-10-02\n"
	p, err := NewParser(strings.NewReader(data))
	require.NoError(t, err)

	row, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, row.Line)
	assert.Equal(t, "2026-10-01", row.Get("work_date"))

	row, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, row.Line, "blank line skipped but counted")
	assert.Equal(t, "", row.Get("hours"), "short rows are padded")

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParser_MaxRows(t *testing.T) {
	p, err := NewParser(strings.NewReader("a\n1\n2\n3\n"), WithMaxRows(2))
	require.NoError(t, err)
	_, _, err = p.ReadAll()
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestParser_ReadAll_CollectsMalformedLines(t *testing.T) {
	p, err := NewParser(strings.NewReader("a,b\n1,2\n\"x\"y\"z,3\n4,5\n"))
	require.NoError(t, err)
	p.reader.LazyQuotes = false

	rows, rowErrs, err := p.ReadAll()

	require.NoError(t, err)
	assert.Len(t, rows, 2)
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 3, rowErrs[0].Line)
	assert.Equal(t, ErrCodeMalformedRow, rowErrs[0].Code)
}

type payrollLine struct {
	Provider string `csv:"provider" validate:"required,max=255"`
	WorkDate string `csv:"work_date" validate:"required,datetime=2006-01-02"`
	Hours    string `csv:"hours" validate:"required,numeric"`
	Rate     string `csv:"rate" validate:"omitempty,numeric"`
	internal string
}

func TestDecoder_Decode(t *testing.T) {
	d := NewDecoder()

	t.Run("valid", func(t *testing.T) {
		var line payrollLine
		err := d.Decode(Row{Line: 2, Values: map[string]string{"provider": "a@example.com", "work_date": "2026-10-01", "hours": "7.5"}}, &line)
		require.NoError(t, err)
		assert.Equal(t, "7.5", line.Hours)
		assert.Empty(t, line.Rate)
		assert.Empty(t, line.internal)
	})

	t.Run("errors name csv columns", func(t *testing.T) {
		var line payrollLine
		err := d.Decode(Row{Line: 7, Values: map[string]string{"work_date": "10/01/2026", "hours": "eight", "rate": "x"}}, &line)

		var rowErrs RowErrors
		require.True(t, errors.As(err, &rowErrs))
		require.Len(t, rowErrs, 4)
		byColumn := map[string]RowError{}
		for _, e := range rowErrs {
			assert.Equal(t, 7, e.Line)
			byColumn[e.Column] = e
		}
		assert.Equal(t, ErrCodeRequired, byColumn["provider"].Code)
		assert.Equal(t, ErrCodeInvalidFormat, byColumn["work_date"].Code)
		assert.Contains(t, byColumn["hours"].Message, "not a number")
		assert.Contains(t, err.Error(), "provider: is required")
	})

	t.Run("rejects non struct targets", func(t *testing.T) {
		var s string
		assert.Error(t, d.Decode(Row{}, &s))
	})
}
