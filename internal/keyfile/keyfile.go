// Package keyfile reads freedesktop.org key-value descriptor files
// (index.theme, *.icon) with locale-aware string lookup.
package keyfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/ini.v1"
)

// File is a parsed key-value descriptor.
type File struct {
	ini *ini.File
}

// Load parses the descriptor at path.
func Load(path string) (*File, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		// Descriptor values may contain ';' (e.g. pipe-free lists); only
		// treat it as a comment leader at the start of a line.
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("load keyfile %s: %w", path, err)
	}
	return &File{ini: f}, nil
}

// LoadBytes parses a descriptor from memory.
func LoadBytes(data []byte) (*File, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("load keyfile: %w", err)
	}
	return &File{ini: f}, nil
}

// HasSection reports whether the named section exists.
func (f *File) HasSection(section string) bool {
	_, err := f.ini.GetSection(section)
	return err == nil
}

// HasKey reports whether the key exists in the section.
func (f *File) HasKey(section, key string) bool {
	s, err := f.ini.GetSection(section)
	if err != nil {
		return false
	}
	return s.HasKey(key)
}

// String returns the raw string value, or "" when absent.
func (f *File) String(section, key string) string {
	s, err := f.ini.GetSection(section)
	if err != nil {
		return ""
	}
	k, err := s.GetKey(key)
	if err != nil {
		return ""
	}
	return k.String()
}

// Integer returns the integer value of the key.
func (f *File) Integer(section, key string) (int, error) {
	if !f.HasKey(section, key) {
		return 0, fmt.Errorf("keyfile: missing key %s in [%s]", key, section)
	}
	n, err := strconv.Atoi(strings.TrimSpace(f.String(section, key)))
	if err != nil {
		return 0, fmt.Errorf("keyfile: key %s in [%s] is not an integer: %w", key, section, err)
	}
	return n, nil
}

// StringList returns the comma-separated list value of the key, with each
// element trimmed and empty elements dropped.
func (f *File) StringList(section, key string) []string {
	v := f.String(section, key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IntegerList returns the comma-separated integer list value of the key.
func (f *File) IntegerList(section, key string) ([]int, error) {
	parts := f.StringList(section, key)
	if parts == nil {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("keyfile: key %s in [%s] has non-integer element %q", key, section, p)
		}
		out = append(out, n)
	}
	return out, nil
}

// LocaleString returns the best translation of the key for the current
// locale, falling back to the untranslated value. Translations are stored
// as Key[locale] entries next to the plain key.
func (f *File) LocaleString(section, key string) string {
	return f.LocaleStringFor(section, key, currentLocale())
}

// LocaleStringFor is LocaleString with an explicit locale (BCP 47 or
// POSIX ll_CC form).
func (f *File) LocaleStringFor(section, key, locale string) string {
	s, err := f.ini.GetSection(section)
	if err != nil {
		return ""
	}

	plain := ""
	if k, err := s.GetKey(key); err == nil {
		plain = k.String()
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return plain
	}

	want, err := language.Parse(normalizeLocale(locale))
	if err != nil {
		return plain
	}

	prefix := key + "["
	var tags []language.Tag
	var values []string
	for _, k := range s.Keys() {
		name := k.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, "]") {
			continue
		}
		tag, err := language.Parse(normalizeLocale(name[len(prefix) : len(name)-1]))
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		values = append(values, k.String())
	}
	if len(tags) == 0 {
		return plain
	}

	matcher := language.NewMatcher(tags)
	_, idx, conf := matcher.Match(want)
	if conf == language.No {
		return plain
	}
	return values[idx]
}

// normalizeLocale converts POSIX locale names (sv_SE.UTF-8@mod) to a form
// language.Parse accepts.
func normalizeLocale(locale string) string {
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		locale = locale[:i]
	}
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	return strings.ReplaceAll(locale, "_", "-")
}

func currentLocale() string {
	for _, v := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if s := os.Getenv(v); s != "" {
			return s
		}
	}
	return ""
}
