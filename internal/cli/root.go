// Package cli wires the tripsim commands.
package cli

import (
	"io"
	"os"
	"strings"

	"github.com/duynguyendang/tripsim/internal/config"
	"github.com/duynguyendang/tripsim/internal/manager"
	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/duynguyendang/tripsim/pkg/ontology"
	"github.com/duynguyendang/tripsim/pkg/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	v          *viper.Viper
	cfg        *config.Config
}

// NewRootCmd builds the tripsim command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "tripsim",
		Short: "Match TRIPS logical forms against semantic-frame templates",
		Long: `tripsim scores how well a TRIPS parse instantiates a template of
semantic frames, using the TRIPS ontology to relate types.

Templates and parses are written as logical-form text:
  ((SPEECHACT ?sa SA_TELL :CONTENT ?c) (F ?c (:* HAVE-PROPERTY BE) :FORMAL ?f))`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.String("ontology", "", "ontology JSON file")
	pf.String("catalogue-dir", "", "directory of stored catalogues")
	pf.String("catalogue-file", "", "default catalogue file (text or YAML)")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.Bool("log-json", false, "log as JSON")
	pf.Int("workers", 0, "parallel scoring workers")
	for key, flag := range map[string]string{
		"ontology.path":   "ontology",
		"catalogue.dir":   "catalogue-dir",
		"catalogue.file":  "catalogue-file",
		"log.level":       "log-level",
		"log.json":        "log-json",
		"matcher.workers": "workers",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newMatchCmd(a),
		newGradeCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newREPLCmd(a),
		newCatalogueCmd(a),
		newOntologyCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.configPath != "" {
		a.v.SetConfigFile(a.configPath)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "read config %s: %v", a.configPath, err)
		}
	}
	cfg, err := config.LoadWithViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return logger.Initialize(cfg.Log.JSON, cfg.Log.Level)
}

// service assembles the match service from configuration. The returned
// function releases stored catalogues.
func (a *app) service(readOnly bool) (*service.MatchService, *manager.CatalogueManager, func(), error) {
	var h *ontology.Hierarchy
	if p := a.cfg.Ontology.Path; p != "" {
		var err error
		if h, err = ontology.LoadFile(p); err != nil {
			return nil, nil, nil, err
		}
		logger.Named("cli").Debugw("ontology loaded", logger.FieldPath, p, logger.FieldCount, h.Len())
	}

	var defaults []catalogue.Entry
	if p := a.cfg.Catalogue.File; p != "" {
		var err error
		if defaults, err = catalogue.LoadFile(p); err != nil {
			return nil, nil, nil, err
		}
	}

	mgr, err := manager.New(a.cfg.Catalogue.Dir, a.cfg.Catalogue.MaxOpen, readOnly)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := service.New(h, mgr, defaults, service.Options{
		Workers:           a.cfg.Matcher.Workers,
		OntologyCacheSize: a.cfg.Ontology.CacheSize,
		GraderCacheSize:   a.cfg.Grader.CacheSize,
		GraderCacheTTL:    a.cfg.Grader.CacheTTL,
	})
	if err != nil {
		mgr.CloseAll()
		return nil, nil, nil, err
	}
	return svc, mgr, mgr.CloseAll, nil
}

// readArg returns s, or the contents of the named file when s starts with
// '@'. "@-" reads stdin.
func readArg(cmd *cobra.Command, s string) (string, error) {
	if !strings.HasPrefix(s, "@") {
		return s, nil
	}
	name := s[1:]
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", errors.Wrapf(err, "read %s", name)
	}
	return string(data), nil
}
