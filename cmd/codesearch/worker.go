// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codesearch/internal/config"
	"github.com/kraklabs/codesearch/internal/errors"
	"github.com/kraklabs/codesearch/internal/ui"
	"github.com/kraklabs/codesearch/pkg/embed"
	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/pipeline"
	"github.com/kraklabs/codesearch/pkg/queue"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

// runWorker executes 'codesearch worker <path>...': each path is published
// as an indexing job onto an in-process priority queue, then drained by a
// Worker until empty, demonstrating the ack/nack/dead-letter contract a
// real message-broker-backed consumer would observe.
func runWorker(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to project.yaml")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	priority := fs.Int("priority", 5, "Priority to publish each job at (higher runs first)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codesearch worker [options] <path>...\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err.Error(), "run 'codesearch init' first", err), globals.JSON)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics.http.start", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed { //nolint:gosec // G114: worker is a local dev tool, not internet-facing
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	lex := lexical.NewIndex()
	_ = lex.Load(indexStatePath(cfg, "bm25.gob"))

	var vectors vectorindex.Store
	var embedder embed.Embedder
	if cfg.VectorStore.Enabled {
		vectors, err = vectorindex.NewQdrantStore(vectorindex.QdrantConfig{
			Host:           cfg.VectorStore.Host,
			Port:           cfg.VectorStore.Port,
			APIKey:         cfg.VectorStore.APIKey,
			UseTLS:         cfg.VectorStore.UseTLS,
			CollectionName: cfg.VectorStore.CollectionName,
		})
		if err != nil {
			errors.FatalError(errors.NewNetworkError("cannot connect to Qdrant", err.Error(), "check vector_store settings in project.yaml", err), globals.JSON)
		}
		embedder, err = embed.NewHTTPEmbedder(embed.HTTPConfig{BaseURL: cfg.Embedding.BaseURL, Model: cfg.Embedding.Model, Dimension: cfg.Embedding.Dimension})
		if err != nil {
			errors.FatalError(errors.NewConfigError("cannot configure embedder", err.Error(), "set embedding.model in project.yaml", err), globals.JSON)
		}
	} else {
		vectors = vectorindex.NewMemoryStore()
		embedder = embed.NewDeterministicEmbedder(cfg.Embedding.Dimension)
	}

	p := pipeline.New(logger, embedder, vectors, lex, pipeline.DefaultConfig())

	// This run's job list is fixed up front (one job per path argument), so
	// the queue is closed immediately after publishing: Worker.Run drains
	// whatever is queued, then returns once empty, rather than blocking
	// forever waiting for a job that will never arrive.
	q := queue.New()
	for _, path := range fs.Args() {
		q.Publish(queue.NewJob("", path, "main", *priority))
	}
	q.Close()

	handler := func(ctx context.Context, job entity.IndexingJob) (bool, error) {
		if _, err := os.Stat(job.RepoName); err != nil {
			return false, nil // path doesn't exist: unrecoverable, dead-letter it
		}
		result, err := p.IndexRepo(ctx, job.RepoName, job.RepoName, nil)
		if err != nil {
			return false, err // transient: requeue
		}
		logger.Info("worker.job_indexed", "repo", result.RepoName, "entities", result.EntitiesIndexed)
		return true, nil
	}

	worker := queue.NewWorker(q, handler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("worker.shutdown_signal")
		cancel()
	}()

	worker.Run(ctx)

	if err := lex.Save(indexStatePath(cfg, "bm25.gob")); err != nil {
		logger.Warn("worker.bm25_save_failed", "err", err)
	}

	dead := q.DeadLetters()
	if globals.JSON {
		_ = jsonOut(map[string]any{"dead_letters": dead})
		return
	}
	if len(dead) > 0 {
		ui.Warning(fmt.Sprintf("%d job(s) dead-lettered", len(dead)))
	} else {
		ui.Success("All jobs processed")
	}
}

