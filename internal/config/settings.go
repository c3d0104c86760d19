package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/harmonizer/internal/ir"
)

// Setting keys.
const (
	KeySchemaURL       = "JSON_SCHEMA_URL"
	KeyStudies         = "STUDY_CONFIGURATIONS"
	KeyEngineScriptURL = "ENGINE_SCRIPT_URL"
	KeyLogFile         = "LOG_FILE"
	KeyLedgerPath      = "LEDGER_PATH"
	KeyDefaultSentinel = "DEFAULT_SENTINEL"
	KeyStrictNumeric   = "STRICT_NUMERIC"
)

// DefaultPath is the settings file read when none is named.
const DefaultPath = ".env"

// Settings is the local, environment-specific configuration of a run.
type Settings struct {
	SchemaURL       string `mapstructure:"JSON_SCHEMA_URL"`
	EngineScriptURL string `mapstructure:"ENGINE_SCRIPT_URL"`
	LogFile         string `mapstructure:"LOG_FILE"`
	LedgerPath      string `mapstructure:"LEDGER_PATH"`
	DefaultSentinel int64  `mapstructure:"DEFAULT_SENTINEL"`
	StrictNumeric   bool   `mapstructure:"STRICT_NUMERIC"`

	// Studies is decoded from STUDY_CONFIGURATIONS, which holds either a
	// JSON string or a structured list.
	Studies []ir.StudyConfig `mapstructure:"-"`

	// Path is the settings file that was read, if any.
	Path string `mapstructure:"-"`
}

// Load reads settings from path. A missing file is not an error as long as
// the environment supplies the required keys; call Validate afterwards.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	case ".json":
		v.SetConfigType("json")
	default:
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	v.SetDefault(KeyLogFile, "harmonizer.log")
	v.SetDefault(KeyDefaultSentinel, -999)
	v.SetDefault(KeyStrictNumeric, false)

	for _, key := range []string{
		KeySchemaURL, KeyStudies, KeyEngineScriptURL, KeyLogFile,
		KeyLedgerPath, KeyDefaultSentinel, KeyStrictNumeric,
	} {
		_ = v.BindEnv(key)
	}

	s := &Settings{}
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Field: path, Message: "failed to read settings", Err: err}
		}
	} else {
		s.Path = path
	}

	if err := v.Unmarshal(s); err != nil {
		return nil, &ConfigError{Field: path, Message: "failed to decode settings", Err: err}
	}

	studies, err := decodeStudies(v.Get(KeyStudies))
	if err != nil {
		return nil, &ConfigError{Field: KeyStudies, Message: "invalid study configurations", Err: err}
	}
	s.Studies = studies
	return s, nil
}

// decodeStudies accepts the JSON text used in dotenv files or the list a
// YAML/JSON settings file produces.
func decodeStudies(raw any) ([]ir.StudyConfig, error) {
	var data []byte
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		data = []byte(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		data = b
	}

	var studies []ir.StudyConfig
	if err := json.Unmarshal(data, &studies); err != nil {
		return nil, err
	}
	return studies, nil
}

// Validate checks that every required key is present and that each active
// study and transformation names what the resolver needs.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.SchemaURL) == "" {
		return &ConfigError{Field: KeySchemaURL, Message: "is required"}
	}
	if len(s.Studies) == 0 {
		return &ConfigError{Field: KeyStudies, Message: "at least one study is required"}
	}

	seen := make(map[string]bool, len(s.Studies))
	for i := range s.Studies {
		study := &s.Studies[i]
		if strings.TrimSpace(study.Study) == "" {
			return &ConfigError{Field: fmt.Sprintf("%s[%d].study", KeyStudies, i), Message: "is required"}
		}
		if seen[study.Study] {
			return &ConfigError{Study: study.Study, Message: "study configured more than once"}
		}
		seen[study.Study] = true
		if !study.IsActive() {
			continue
		}
		if strings.TrimSpace(study.TransformationsURL) == "" {
			return &ConfigError{Study: study.Study, Field: "transformations_url", Message: "is required"}
		}
		for j := range study.Transformations {
			if err := validateLocal(study.Study, &study.Transformations[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateLocal(study string, t *ir.LocalTransformation) error {
	if strings.TrimSpace(t.Name) == "" {
		return &ConfigError{Study: study, Field: "name", Message: "transformation name is required"}
	}
	if !t.IsActive() {
		return nil
	}
	if strings.TrimSpace(t.SourceFilePath) == "" {
		return &ConfigError{Study: study, Transformation: t.Name, Field: "source_file_path", Message: "is required"}
	}
	if strings.TrimSpace(t.OutputFilePath) == "" {
		return &ConfigError{Study: study, Transformation: t.Name, Field: "output_file_path", Message: "is required"}
	}
	return nil
}
