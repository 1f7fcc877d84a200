// filesystem/parser.go
package filesystem

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ViniZap4/lumi-notes/domain"
)

var fence = []byte("---")

// Decode parses a markdown document with a YAML frontmatter block. The
// block opens on the first line and closes at the next line that is exactly
// "---". The body is kept verbatim after the blank separator line.
func Decode(data []byte) (domain.Note, error) {
	var note domain.Note
	data = bytes.TrimLeft(data, "\ufeff \t\r\n")

	line, rest, _ := cutLine(data)
	if !bytes.Equal(line, fence) {
		return note, fmt.Errorf("missing frontmatter")
	}

	var front []byte
	body, closed := rest, false
	for len(body) > 0 {
		line, next, _ := cutLine(body)
		if bytes.Equal(line, fence) {
			front = rest[:len(rest)-len(body)]
			body, closed = next, true
			break
		}
		body = next
	}
	if !closed {
		return note, fmt.Errorf("invalid frontmatter format")
	}

	if err := yaml.Unmarshal(front, &note); err != nil {
		return note, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if sep, after, ok := cutLine(body); ok && len(sep) == 0 {
		body = after
	}
	note.Content = string(body)
	return note, nil
}

// cutLine splits off the first line of data without its line ending.
func cutLine(data []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(data, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}

func Encode(note domain.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(fence)
	buf.WriteByte('\n')

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(note); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.Write(fence)
	buf.WriteString("\n\n")
	buf.WriteString(note.Content)
	return buf.Bytes(), nil
}

func ReadNote(path string) (domain.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Note{}, err
	}
	note, err := Decode(data)
	if err != nil {
		return domain.Note{}, fmt.Errorf("%s: %w", path, err)
	}
	note.Path = path
	return note, nil
}
