package splitter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)
	_, err = New(10, -1)
	require.Error(t, err)
	_, err = New(10, 10)
	require.Error(t, err)

	s, err := New(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
	assert.Equal(t, 1000, s.Size())
	assert.Equal(t, 200, s.Overlap())
}

func TestSplit_OverlapsOnSpaces(t *testing.T) {
	s, err := New(10, 5)
	require.NoError(t, err)

	chunks := s.Split("aaaa bbbb cccc dddd", "notes.txt", 0)

	var got []string
	for _, c := range chunks {
		got = append(got, c.Content)
		assert.Equal(t, "notes.txt", c.Source)
		assert.Equal(t, 0, c.Page)
	}
	assert.Equal(t, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}, got)
	assert.Equal(t, 2, chunks[2].Index)
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	s, err := New(15, 0)
	require.NoError(t, err)

	chunks := s.Split("para one.\n\npara two.", "doc", 3)

	require.Len(t, chunks, 2)
	assert.Equal(t, "para one.", chunks[0].Content)
	assert.Equal(t, "para two.", chunks[1].Content)
	assert.Equal(t, 3, chunks[1].Page)
}

func TestSplit_FallsBackToCharacterCuts(t *testing.T) {
	s, err := New(4, 0)
	require.NoError(t, err)

	chunks := s.Split("abcdefghij", "doc", 0)

	var got []string
	for _, c := range chunks {
		got = append(got, c.Content)
	}
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, got)
}

func TestSplit_RespectsSizeInRunes(t *testing.T) {
	s, err := New(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("Ünïcödé lëgål tëxt wïth äccents.\n", 40)
	for _, c := range s.Split(text, "doc", 0) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 50)
		assert.NotEmpty(t, c.Content)
		assert.Equal(t, strings.TrimSpace(c.Content), c.Content)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := New(120, 30)
	require.NoError(t, err)

	text := strings.Repeat("The tenant shall pay rent monthly.\n\nNotice of termination is 30 days. ", 25)
	first := s.Split(text, "lease.pdf", 1)
	second := s.Split(text, "lease.pdf", 1)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSplit_EmptyText(t *testing.T) {
	s, err := New(10, 2)
	require.NoError(t, err)

	assert.Empty(t, s.Split("", "doc", 0))
	assert.Empty(t, s.Split("   \n\n  ", "doc", 0))
}

func TestSplitPages_NumbersAcrossPages(t *testing.T) {
	s, err := New(10, 0)
	require.NoError(t, err)

	chunks := s.SplitPages([]Page{
		{Number: 0, Text: "first page"},
		{Number: 1, Text: "second one"},
	}, "contract.pdf")

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].Page)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 1, chunks[1].Page)
}
