package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// APPDIRBUILDER_RUNTIME_EXECPATH or APPDIRBUILDER_DESKTOPENTRY_NAME.
const EnvPrefix = "APPDIRBUILDER_"

// Defaults returns the policy with every key at its default value.
func Defaults() (Policy, error) {
	return Load("")
}

// Load builds the policy from the embedded defaults, the INI file at path
// and the environment. An empty path or a missing file yields the defaults.
func Load(path string) (Policy, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(bytesProvider(defaultPolicy), toml.Parser()); err != nil {
		return Policy{}, errors.Wrap(err, errors.ErrInternal, "failed to load default policy")
	}

	// 2. Policy file
	var fileDesktopKeys []string
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			doc, err := loadINI(path)
			if err != nil {
				return Policy{}, errors.Wrapf(err, errors.ErrConfig, "malformed policy file %s", path).
					WithDetail("path", path)
			}
			if err := k.Load(confmap.Provider(doc.values, "."), nil); err != nil {
				return Policy{}, errors.Wrapf(err, errors.ErrConfig, "failed to merge policy file %s", path)
			}
			fileDesktopKeys = doc.desktopKeys
			logger.Debug().Str("path", path).Msg("Loaded policy file")
		} else if !os.IsNotExist(err) {
			return Policy{}, errors.Wrapf(err, errors.ErrConfig, "cannot read policy file %s", path)
		} else {
			logger.Debug().Str("path", path).Msg("No policy file, using defaults")
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Policy{}, errors.Wrap(err, errors.ErrConfig, "failed to load environment overrides")
	}

	// 4. Unmarshal
	var doc policyDoc
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &doc,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToBoolHookFunc(),
				stringToLinesHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &doc, unmarshalConf); err != nil {
		return Policy{}, errors.Wrap(err, errors.ErrConfig, "failed to decode policy")
	}

	p := doc.policy()
	p.DesktopEntry = desktopEntryFrom(k, fileDesktopKeys)
	return p, nil
}

// policyDoc is the decoded shape of the merged layers.
type policyDoc struct {
	Files   filesDoc `koanf:"files"`
	Python  Python   `koanf:"python"`
	Runtime Runtime  `koanf:"runtime"`
	Icon    Icon     `koanf:"icon"`
}

type filesDoc struct {
	Exclude                   []string `koanf:"exclude" toml:"exclude"`
	Include                   []string `koanf:"include" toml:"include"`
	PatchHardCodedBinaryPaths bool     `koanf:"patchhardcodedbinarypaths" toml:"patchHardCodedBinaryPaths"`
}

func (d policyDoc) policy() Policy {
	p := Policy{
		Files:   Files{PatchHardCodedBinaryPaths: d.Files.PatchHardCodedBinaryPaths},
		Runtime: d.Runtime,
		Icon:    d.Icon,
		Python:  d.Python,
	}
	return p.WithExclude(d.Files.Exclude...).WithInclude(d.Files.Include...)
}

func docFrom(p Policy) policyDoc {
	return policyDoc{
		Files: filesDoc{
			Exclude:                   p.ExcludeFragments(),
			Include:                   p.IncludeFragments(),
			PatchHardCodedBinaryPaths: p.Files.PatchHardCodedBinaryPaths,
		},
		Python:  p.Python,
		Runtime: p.Runtime,
		Icon:    p.Icon,
	}
}

// envKey maps APPDIRBUILDER_SECTION_KEY to section.key. Variables that do
// not name a section are dropped.
func envKey(s string) string {
	rest := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(rest, "_")
	if !ok || key == "" {
		return ""
	}
	if section == "desktopentry" {
		section = koanfSection(SectionDesktopEntry)
	}
	return section + "." + key
}

// desktopEntryFrom rebuilds the ordered section: default keys first, then
// keys the file adds in file order. Values come from the merged layers.
func desktopEntryFrom(k *koanf.Koanf, fileKeys []string) DesktopEntry {
	prefix := koanfSection(SectionDesktopEntry) + "."

	var d DesktopEntry
	for _, key := range defaultDesktopKeys {
		d = d.With(key, k.String(prefix+strings.ToLower(key)))
	}
	for _, key := range fileKeys {
		if !d.Has(key) {
			d = d.With(key, k.String(prefix+strings.ToLower(key)))
		}
	}
	return d
}

// stringToBoolHookFunc treats "true" in any case as true and every other
// string as false.
func stringToBoolHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Bool {
			return data, nil
		}
		return strings.EqualFold(strings.TrimSpace(data.(string)), "true"), nil
	}
}

// stringToLinesHookFunc splits multi-line INI values into slices.
func stringToLinesHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.String {
			return data, nil
		}
		return splitLines(data.(string)), nil
	}
}
