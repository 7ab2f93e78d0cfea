package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSchemasValidate(t *testing.T) {
	for _, s := range Builtin() {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, s.Validate())
		})
	}
	lengths := map[string]int{}
	for _, s := range Builtin() {
		lengths[s.Name] = len(s.Sections)
	}
	assert.Equal(t, map[string]int{Excel11: 11, Attendance4: 4, Flight13: 13}, lengths)
}

func TestOnlyAttendanceSplitsOnCommas(t *testing.T) {
	commas := map[string]string{}
	for _, s := range Builtin() {
		commas[s.Name] = s.CommaSection
	}
	assert.Equal(t, map[string]string{Excel11: "", Attendance4: "Unlisted", Flight13: ""}, commas)
}

func TestValidateRejects(t *testing.T) {
	base := excel11()

	dup := base
	dup.Sections = append([]string{}, base.Sections...)
	dup.Sections[1] = "Staff"
	assert.Error(t, dup.Validate())

	badMarker := base
	badMarker.StaffSection = "Command"
	assert.Error(t, badMarker.Validate())

	badGroup := base
	badGroup.Groups = []Group{{Name: "Flight 9", Sections: []string{"Echo 9"}}}
	assert.Error(t, badGroup.Validate())

	badComma := base
	badComma.CommaSection = "Visitors"
	assert.Error(t, badComma.Validate())

	badGrammar := base
	badGrammar.Grammar = "reversed"
	assert.Error(t, badGrammar.Validate())
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{Excel11, Attendance4, Flight13}, r.Names())

	s, err := r.Get("attendance4")
	require.NoError(t, err)
	assert.Equal(t, GrammarFirstnameSurname, s.Grammar)

	_, err = r.Get("nope")
	require.True(t, errors.Is(err, ErrUnknownSchema))
}

func TestRegistryLoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `
name: squadron2
sections: [Staff, Seniors, Juniors, Visitors]
staff_section: Staff
executive_section: Seniors
overflow_section: Visitors
comma_section: Visitors
groups:
  - name: Juniors
    sections: [Juniors]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "squadron2.yaml"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := r.Get("squadron2")
	require.NoError(t, err)
	assert.Equal(t, GrammarSurnameOnly, s.Grammar)
	assert.Equal(t, "A", s.Layout.TimestampColumn)
	assert.Equal(t, "B", s.Layout.FirstSectionColumn)
	assert.Equal(t, "Visitors", s.CommaSection)
	assert.Len(t, r.All(), 4)

	n, err = r.LoadDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("name: broken\nsections: [A, A]\n"))
	assert.Error(t, err)
}

func TestSuggest(t *testing.T) {
	headers := []string{"Completion time", "Staff", "Executives & Seniors", "Alpha 1", "Bravo 1", "Charlie 1", "Delta 1", "Alpha 2", "Bravo 2", "Charlie 2", "Delta 2", "Zulu"}
	got := Suggest(Builtin(), headers)
	require.Len(t, got, 3)
	assert.Equal(t, Excel11, got[0].Schema)
	assert.Equal(t, "headers_positive", got[0].Reason)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}
