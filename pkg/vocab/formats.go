package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vulyk/suggestserve/internal/utils"
)

// ErrUnknownFormat is returned for files whose extension is not supported.
var ErrUnknownFormat = errors.New("unknown vocabulary format")

// FileFormat represents the supported term file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatText               // one term per line
	FormatMsgpack            // msgpack array of strings
)

// FormatInfo contains metadata about a term file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Vocabulary",
		Extensions:  []string{".txt"},
	},
	FormatMsgpack: {
		Format:      FormatMsgpack,
		Description: "Msgpack Vocabulary",
		Extensions:  []string{".msgpack", ".mpk"},
	},
}

// DetectFileFormat picks the format from the file extension.
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// Load reads a vocabulary file.
func Load(path string) (*Vocabulary, error) {
	terms, err := ReadTerms(path)
	if err != nil {
		return nil, err
	}
	v := New(terms)
	log.Debugf("Loaded %d terms from %s", v.Len(), path)
	return v, nil
}

// ReadTerms reads the raw terms of a vocabulary file, without deduplication.
func ReadTerms(path string) ([]string, error) {
	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, err
	}
	if info, ok := GetFormatInfo(format); ok {
		log.Debugf("Reading %s from %s", info.Description, path)
	}
	switch format {
	case FormatText:
		return readText(path)
	case FormatMsgpack:
		return readMsgpack(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func readText(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", path, err)
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	return terms, nil
}

func readMsgpack(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", path, err)
	}
	defer file.Close()

	var terms []string
	if err := msgpack.NewDecoder(bufio.NewReader(file)).Decode(&terms); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary %s: %w", path, err)
	}
	return terms, nil
}

// WriteMsgpack writes terms as a msgpack vocabulary file.
func WriteMsgpack(path string, terms []string) error {
	data, err := msgpack.Marshal(terms)
	if err != nil {
		return fmt.Errorf("failed to encode vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vocabulary %s: %w", path, err)
	}
	return nil
}

// LoadConfigured builds the vocabulary a config describes: the file at path
// when set (resolved against dirs), otherwise the inline terms.
func LoadConfigured(path string, terms []string, dirs ...string) (*Vocabulary, error) {
	if path == "" {
		log.Debugf("Using %d inline terms", len(terms))
		return New(terms), nil
	}
	return Load(utils.ResolveFile(path, dirs...))
}
