package tree

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the per-directory configuration file.
const ConfigFileName = "tikibase.json"

// SchemaFileName is where the json-schema command writes the schema of ConfigFileName.
const SchemaFileName = "tikibase.schema.json"

// File mirrors the on-disk format of tikibase.json.
type File struct {
	Schema     string   `koanf:"$schema" json:"$schema,omitempty" jsonschema:"description=URL of the JSON schema for this file"`
	Sections   []string `koanf:"sections" json:"sections,omitempty" validate:"omitempty,unique,dive,required" jsonschema:"description=Allowed section titles in the order they must appear"`
	Ignore     []string `koanf:"ignore" json:"ignore,omitempty" validate:"omitempty,dive,required,glob" jsonschema:"description=Glob patterns of files to skip"`
	BidiLinks  bool     `koanf:"bidiLinks" json:"bidiLinks,omitempty" jsonschema:"description=Require every document linking here to be listed in an occurrences section"`
	TitleRegEx string   `koanf:"titleRegEx" json:"titleRegEx,omitempty" validate:"omitempty,regexp" jsonschema:"description=Regular expression with one capture group that extracts the link text for occurrences entries"`
}

var knownKeys = map[string]struct{}{
	"$schema":    {},
	"sections":   {},
	"ignore":     {},
	"bidiLinks":  {},
	"titleRegEx": {},
}

// Config is the merged configuration of a directory.
// Nil fields are unset and fall back to the parent directory's value.
type Config struct {
	Sections   []string
	Ignore     []string
	BidiLinks  *bool
	TitleRegEx *string
}

// Bidi reports whether documents must list their back-links.
func (c Config) Bidi() bool {
	return c.BidiLinks != nil && *c.BidiLinks
}

// TitlePattern returns the configured title regex, or "" when none is set.
func (c Config) TitlePattern() string {
	if c.TitleRegEx == nil {
		return ""
	}
	return *c.TitleRegEx
}

// HasSections reports whether a section schema is configured.
func (c Config) HasSections() bool {
	return c.Sections != nil
}

// Merge returns parent overridden by every field child sets.
func Merge(parent, child Config) Config {
	out := parent
	if child.Sections != nil {
		out.Sections = child.Sections
	}
	if child.Ignore != nil {
		out.Ignore = child.Ignore
	}
	if child.BidiLinks != nil {
		out.BidiLinks = child.BidiLinks
	}
	if child.TitleRegEx != nil {
		out.TitleRegEx = child.TitleRegEx
	}
	return out
}

// Ignores reports whether name, or rel, the entry's path relative to the root,
// matches one of the configured ignore patterns.
func (c Config) Ignores(name, rel string) bool {
	for _, pattern := range c.Ignore {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		return doublestar.ValidatePattern(fl.Field().String())
	})
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// LoadConfig reads and validates the configuration file at abs.
// Only fields present in the file are set on the result.
func LoadConfig(abs string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(abs), json.Parser()); err != nil {
		return Config{}, fmt.Errorf("tree: load config: %w", err)
	}
	if unknown := unknownKeys(k); len(unknown) > 0 {
		return Config{}, fmt.Errorf("tree: unknown keys: %s", strings.Join(unknown, ", "))
	}

	var f File
	err := k.UnmarshalWithConf("", &f, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &f,
			TagName:          "koanf",
			WeaklyTypedInput: false,
			ErrorUnused:      true,
		},
	})
	if err != nil {
		return Config{}, fmt.Errorf("tree: decode config: %w", err)
	}
	if err := validate.Struct(f); err != nil {
		return Config{}, fmt.Errorf("tree: validate config: %w", describe(err))
	}

	var cfg Config
	if k.Exists("sections") {
		cfg.Sections = append([]string{}, f.Sections...)
	}
	if k.Exists("ignore") {
		cfg.Ignore = append([]string{}, f.Ignore...)
	}
	if k.Exists("bidiLinks") {
		bidi := f.BidiLinks
		cfg.BidiLinks = &bidi
	}
	if k.Exists("titleRegEx") {
		re := f.TitleRegEx
		cfg.TitleRegEx = &re
	}
	return cfg, nil
}

func unknownKeys(k *koanf.Koanf) []string {
	var out []string
	for key := range k.Raw() {
		if _, ok := knownKeys[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// describe turns validator errors into one line per offending field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
