package game

import (
	"io/ioutil"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// LoadLobbyConfig reads phase durations and history settings from a
// YAML file, filling anything unset from the defaults. An empty path
// returns the defaults.
func LoadLobbyConfig(path string) (LobbyConfig, error) {
	config := DefaultLobbyConfig()
	if path == "" {
		return config, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return config, errors.Wrap(err, "Unable to read lobby config file")
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrap(err, "Unable to parse lobby config file")
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultLobbyConfig().HistorySize
	}
	return config, nil
}
