package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/chainer/pkg/chainer"
	"github.com/cognicore/chainer/pkg/chainer/config"
	"github.com/cognicore/chainer/pkg/chainer/logging"
	"github.com/cognicore/chainer/pkg/chainer/store"
	"github.com/cognicore/chainer/pkg/chainer/store/sqlite"
)

// app is the state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configPath string
	factsPath  string
	rulesPath  string

	cfg *config.Config
	log *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "chainer",
		Short: "Forward-chaining deduction over facts and rules",
		Long: `chainer - forward-chaining deductive engine.

Facts are lines of whitespace separated words, the first one naming the
predicate. Rules join conditions with "&" and put the conclusion after "->".
Words starting with "?" are variables.

Examples:
  chainer repl facts.txt rules.txt
  chainer query --facts facts.txt --rules rules.txt "ancestor alice ?who"
  chainer explain --facts facts.txt --rules rules.txt "ancestor alice carol"
  chainer snapshot save --facts facts.txt --rules rules.txt --label family`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.factsPath, "facts", "", "facts file")
	flags.StringVar(&a.rulesPath, "rules", "", "rules file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Int("max-derivations", 0, "cap on entries derived from one insertion")
	flags.String("db", "", "snapshot database path")

	mustBind(a.v, config.KeyLogLevel, root, "log-level")
	mustBind(a.v, config.KeyMaxDerivations, root, "max-derivations")
	mustBind(a.v, config.KeyStorePath, root, "db")

	root.AddCommand(
		newReplCmd(a),
		newQueryCmd(a),
		newExplainCmd(a),
		newSnapshotCmd(a),
	)
	return root
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// setup resolves the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	loader := config.Loader{ConfigPath: a.configPath}
	comp, err := loader.Load()
	if err != nil {
		return errors.WithHint(err, "fix or remove the file passed with --config")
	}

	cfg, err := config.Overlay(a.v, comp.Config)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.LoggingOptions())
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// engine builds an engine loaded with the given files. With withStore the
// snapshot database is opened too.
func (a *app) engine(ctx context.Context, factsPath, rulesPath string, withStore bool) (*chainer.Engine, error) {
	var st store.Store
	if withStore {
		var err error
		st, err = sqlite.OpenSQLite(ctx, a.cfg.Store.Path)
		if err != nil {
			return nil, errors.WithHint(errors.Wrap(err, "open snapshot store"),
				"set store.path in the config file or pass --db")
		}
	}

	e := chainer.New(chainer.Options{
		Config: a.cfg,
		Logger: a.log,
		Store:  st,
	})

	if factsPath != "" {
		if err := e.LoadFactsFile(factsPath); err != nil {
			e.Close()
			return nil, err
		}
	}
	if rulesPath != "" {
		if err := e.LoadRulesFile(rulesPath); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}
