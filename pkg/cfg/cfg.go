// Package cfg dispatches several calculations. It avoids to start a
// specific program for each calculation.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kpotier/wateranalysis/pkg/util"

	"github.com/pelletier/go-toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Cfg is a structure where the types of calculations are stored. It can be
// instanced through the New method. The length of the Files slice must be equal
// to the length of the Types files. Each calculation requires a configuration
// file where the parameters required to run the calculation are stored.
type Cfg struct {
	Types [][]string `toml:"types" yaml:"types"`
	Files [][]string `toml:"files" yaml:"files"`
}

// New returns an instance of the Cfg structure. It opens and reads the
// configuration file where Types and Files are stored. The configuration file
// must use the TOML format, or the YAML format if its extension is .yaml or
// .yml. The parameter files of the calculations are always TOML files.
func New(path string) (Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cfg{}, &util.IOError{Path: path, Err: err}
	}
	defer f.Close()

	var cfg Cfg
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&cfg)
	default:
		err = toml.NewDecoder(f).Decode(&cfg)
	}
	if err != nil {
		return Cfg{}, err
	}

	if len(cfg.Files) != len(cfg.Types) {
		return Cfg{}, &util.ConfigError{Option: "files", Msg: fmt.Sprintf("length of Files isn't equal to Types (%d vs %d)",
			len(cfg.Files), len(cfg.Types))}
	}

	for k, v := range cfg.Files {
		if len(v) != len(cfg.Types[k]) {
			return Cfg{}, &util.ConfigError{Option: "files", Msg: fmt.Sprintf("length of Files isn't equal to Types (%d vs %d, step %d)",
				len(v), len(cfg.Types[k]), k)}
		}
	}

	return cfg, nil
}

// Start dispatches and performs the calculations one after the other, in
// the order of the file. It is a thread blocking method. The first error
// stops the job.
func (c Cfg) Start(log *zap.Logger) error {
	for step, types := range c.Types {
		for rtn, name := range types {
			log.Info("calculation started", zap.Int("step", step), zap.String("type", name), zap.String("file", c.Files[step][rtn]))

			err := Launch(name, c.Files[step][rtn], log)
			if err != nil {
				return fmt.Errorf("Launch (step %d, routine %d): %w", step, rtn, err)
			}

			log.Info("calculation done", zap.Int("step", step), zap.String("type", name))
		}
	}
	return nil
}
