package config

import (
	"github.com/cockroachdb/errors"

	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/parser"
)

// Loader loads the configuration file and the fact and rule files.
// Every path is optional.
type Loader struct {
	ConfigPath string
	FactsPath  string
	RulesPath  string
}

// Components holds everything a Loader read.
type Components struct {
	Config *Config
	Facts  []*kb.Fact
	Rules  []*kb.Rule
}

// Load reads all configured files.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Load config
	if l.ConfigPath != "" {
		cfg, err := Load(l.ConfigPath)
		if err != nil {
			return nil, errors.Wrap(err, "load config")
		}
		comp.Config = cfg
	} else {
		comp.Config = Default()
	}

	// Load facts
	if l.FactsPath != "" {
		facts, err := parser.ParseFactsFile(l.FactsPath)
		if err != nil {
			return nil, errors.Wrap(err, "load facts")
		}
		comp.Facts = facts
	}

	// Load rules
	if l.RulesPath != "" {
		rules, err := parser.ParseRulesFile(l.RulesPath)
		if err != nil {
			return nil, errors.Wrap(err, "load rules")
		}
		comp.Rules = rules
	}

	return comp, nil
}
