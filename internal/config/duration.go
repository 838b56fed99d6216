package config

import (
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
)

// Duration is a time.Duration that reads "5s"/"3m" style strings from YAML.
// Bare integers are accepted as nanoseconds for compatibility with dumped
// configs.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return ferrors.ConfigError("invalid duration value").WithContext("value", asString).Build()
		}
		*d = Duration(parsed)
		return nil
	}

	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = Duration(asInt)
		return nil
	}
	return ferrors.ConfigError("invalid duration value").WithContext("value", value.Value).Build()
}
