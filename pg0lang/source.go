package pg0lang

import (
	"path/filepath"
	"strings"

	"github.com/reusee/pg0/pg0vm"
)

type Source struct {
	Name    string
	Dir     string
	Content string
	Lines   []string
}

func NewSource(name, dir, content string) *Source {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return &Source{
		Name:    name,
		Dir:     filepath.Clean(dir),
		Content: content,
		Lines:   strings.Split(content, "\n"),
	}
}

// Line returns the trimmed text of a 1-based line.
func (s *Source) Line(n int) string {
	return pg0vm.SourceLine(s.Lines, n)
}

type Pos struct {
	Line   int
	Column int
}
