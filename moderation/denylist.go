package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	"github.com/GiancarloEsposito06/Live-comments-overlay/errors"
)

//go:embed denylist/*.txt
var denylistFS embed.FS

// DenylistData carries the result of the loading process including metadata for logging.
type DenylistData struct {
	Words     []string
	Languages []string
}

// DenylistLoader is responsible for reading and parsing denied words from embedded files.
type DenylistLoader struct {
	fs embed.FS
}

// NewDenylistLoader creates a new instance of DenylistLoader with the provided embedded filesystem.
func NewDenylistLoader(f embed.FS) *DenylistLoader {
	return &DenylistLoader{fs: f}
}

// LoadDefault parses the denylist shipped with this package, one file
// per language.
func LoadDefault() (*DenylistData, error) {
	return NewDenylistLoader(denylistFS).LoadAll("denylist")
}

// LoadAll scans the given directory path in the embedded FS, identifying .txt files
// as language dictionaries and parsing their contents into a unique list of words.
func (l *DenylistLoader) LoadAll(path string) (*DenylistData, error) {
	entries, err := fs.ReadDir(l.fs, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		// The denylist directory is flat, one file per language
		if entry.IsDir() {
			return nil, errors.ErrOnlyDenylistFiles
		}

		// Track the language based on the filename (e.g., "fr.txt" -> "fr")
		lang := strings.TrimSuffix(entry.Name(), ".txt")
		languages = append(languages, lang)

		// Read the file content
		data, err := l.fs.ReadFile(path + "/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// Use a scanner to handle different line endings (\n vs \r\n) correctly
		// ⚠️Don't use strings.Split
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}

		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	// Convert the map of unique words into a slice
	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &DenylistData{
		Words:     words,
		Languages: languages,
	}, nil
}
