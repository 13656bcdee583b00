// Package zerolog_config bootstraps the process-wide zerolog logger:
// pretty console output always, plus an ECS-formatted Elasticsearch sink
// when a URL is configured.
package zerolog_config

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

var startupOnce sync.Once

// ElasticsearchWriter sends logs directly to Elasticsearch
type ElasticsearchWriter struct {
	URL string
}

func (ew ElasticsearchWriter) Write(p []byte) (n int, err error) {
	resp, err := http.Post(
		ew.URL+"/_doc",
		"application/json",
		bytes.NewBuffer(p),
	)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("elasticsearch returned %d", resp.StatusCode)
	}

	return len(p), nil
}

// Startup configures the global logger for the named app. An empty
// elasticsearchURL means console only. Safe to call more than once; only
// the first call takes effect.
func Startup(app, elasticsearchURL string) {
	startupOnce.Do(func() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}

		if elasticsearchURL == "" {
			log.Logger = zerolog.New(consoleWriter).With().
				Str("app", app).
				Timestamp().Logger()
			return
		}

		ecsLogger := ecszerolog.New(&ElasticsearchWriter{
			URL: elasticsearchURL + "/logs",
		})

		multi := zerolog.MultiLevelWriter(ecsLogger, consoleWriter)
		log.Logger = zerolog.New(multi).With().
			Str("app", app).
			Timestamp().Logger()
	})
}
