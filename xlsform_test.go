package agreement

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nao1215/agreement/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSurveyRows() [][]string {
	return [][]string{
		{"type", "name", "label::English", "required"},
		{"start", "start", "", ""},
		{"text", "name", "Your name", "yes"},
		{"begin group", "household", "Household", ""},
		{"integer", "size", "Household size", ""},
		{"begin_repeat", "member", "Member", ""},
		{"integer", "age", "Age", ""},
		{"end_repeat", "", "", ""},
		{"calculate", "double", "", ""},
		{"end group", "", "", ""},
		{"note", "thanks", "Thank you", ""},
	}
}

func TestParseSurveyRows(t *testing.T) {
	t.Parallel()

	fields, err := parseSurveyRows(sampleSurveyRows())
	require.NoError(t, err)
	require.Len(t, fields, 10)

	age := fields[5]
	assert.Equal(t, "integer", age.Type)
	assert.Equal(t, "Age", age.Label)
	assert.Equal(t, []string{"household", "member"}, age.Path)
	assert.Equal(t, "household:member:age", age.FullName(model.DefaultSeparator))
	assert.Equal(t, "household-member-age", age.FullName(model.AlternateSeparator))

	assert.Equal(t, "begin repeat", fields[4].Type)
	assert.Equal(t, []string{"household"}, fields[4].Path)
	assert.Equal(t, "end repeat", fields[6].Type)
	assert.Equal(t, []string{"household"}, fields[6].Path)

	double := fields[7]
	assert.Equal(t, "household:double", double.FullName(model.DefaultSeparator))
	assert.Empty(t, fields[9].Path)
}

func TestParseSurveyRows_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows [][]string
	}{
		{
			name: "missing name column",
			rows: [][]string{{"type", "label"}, {"text", "Name"}},
		},
		{
			name: "unbalanced end group",
			rows: [][]string{{"type", "name"}, {"text", "a"}, {"end group", ""}},
		},
		{
			name: "group never closed",
			rows: [][]string{{"type", "name"}, {"begin group", "g"}, {"text", "a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseSurveyRows(tt.rows)
			assert.True(t, errors.Is(err, ErrInvalidForm), "got %v", err)
		})
	}
}

func TestResponseFields(t *testing.T) {
	t.Parallel()

	fields, err := parseSurveyRows(sampleSurveyRows())
	require.NoError(t, err)

	got := ResponseFields(fields)
	names := make([]string, len(got))
	for i, f := range got {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"name", "size", "age"}, names)
}

func TestLoadForm(t *testing.T) {
	t.Parallel()

	t.Run("reads survey sheet", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "form.xlsx")
		writeXLSX(t, path, "survey", sampleSurveyRows())

		fields, err := LoadForm(path)
		require.NoError(t, err)
		require.Len(t, fields, 10)
		assert.Equal(t, "household:member:age", fields[5].FullName(':'))
	})

	t.Run("workbook without survey sheet", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "form.xlsx")
		writeXLSX(t, path, "Sheet1", sampleSurveyRows())

		_, err := LoadForm(path)
		assert.True(t, errors.Is(err, ErrInvalidForm), "got %v", err)
	})

	t.Run("file not found", func(t *testing.T) {
		t.Parallel()
		_, err := LoadForm(filepath.Join(t.TempDir(), "none.xlsx"))
		assert.True(t, errors.Is(err, ErrFileNotFound))
	})

	t.Run("not a workbook", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "form.xlsx"), []byte("type,name\n"))
		_, err := LoadForm(path)
		assert.True(t, errors.Is(err, ErrInvalidForm), "got %v", err)
	})
}
