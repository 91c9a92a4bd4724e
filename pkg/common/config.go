package common

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/promlog"
	promlogflag "github.com/prometheus/common/promlog/flag"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v2"
)

type ProbeConfig struct {
	LogConfig      promlog.Config `yaml:"log,omitempty"`
	HttpListenAddr string         `yaml:"http_listen_addr,omitempty"`
	ConfigPath     string         `yaml:"config_path,omitempty"`
}

func AddFlags(a *kingpin.Application, cfg *ProbeConfig) {
	a.HelpFlag.Short('h')
	a.Flag("web.listen-address", "Address to listen on for telemetry. Empty disables the HTTP server.").
		Default("").StringVar(&cfg.HttpListenAddr)
	a.Flag("config.path", "Path to the probe configuration file. Empty uses the defaults.").
		Default("").StringVar(&cfg.ConfigPath)
	promlogflag.AddFlags(a, &cfg.LogConfig)
}

// ParseConfigFile unmarshals the configuration file into config.
// config is left untouched when no path is configured.
func (cfg *ProbeConfig) ParseConfigFile(config interface{}) error {
	if cfg.ConfigPath == "" {
		return nil
	}
	logger := cfg.GetLogger()
	level.Info(logger).Log("msg", fmt.Sprintf("Parsing the configuration file (--config.path=%s)", cfg.ConfigPath))
	configData, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read the configuration file (--config.path=%s)", cfg.ConfigPath)
	}
	err = yaml.UnmarshalStrict(configData, config)
	if err != nil {
		return errors.Wrapf(err, "failed to parse the configuration file (--config.path=%s)", cfg.ConfigPath)
	}
	return nil
}

func (cfg *ProbeConfig) GetLogger() log.Logger {
	return promlog.New(&cfg.LogConfig)
}

// StartHttpServer serves /metrics and /ready in the background if a listen
// address is configured
func (cfg *ProbeConfig) StartHttpServer(logger log.Logger) {
	if cfg.HttpListenAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ready", BasicHealthCheck)
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(cfg.HttpListenAddr, mux)
		level.Error(logger).Log("msg", "HTTP server stopped", "err", err)
	}()
}

func BasicHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
}
