/*
cargograph-server serves the crate dependency traversal HTTP endpoint,
backed by an in-process graph snapshot loaded from a -fixture JSON dump
(produced by cargograph-ingest -dump). -fixture is required; this command
does not construct a store.RemoteClient.
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cargodeps/graph/internal/cache"
	"github.com/cargodeps/graph/internal/httpapi"
	"github.com/cargodeps/graph/store"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cargograph-server -fixture <snapshot.json> [-addr :8080] [-cache-size 10000]\n")
		flag.PrintDefaults()
	}
	fixturePath := flag.String("fixture", "", "path to a JSON snapshot produced by cargograph-ingest -dump")
	addr := flag.String("addr", ":8080", "listen address")
	cacheSize := flag.Int("cache-size", 10000, "maximum number of cached traversal responses")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *fixturePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	client, err := loadFixture(*fixturePath)
	if err != nil {
		logger.Error("load fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}

	handler := &httpapi.Handler{
		Client: client,
		Cache:  cache.NewLRU(*cacheSize),
		Logger: logger,
	}

	logger.Info("cargograph-server listening", "addr", *addr, "fixture", *fixturePath)
	if err := http.ListenAndServe(*addr, handler.NewMux()); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*store.MemoryClient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dump store.Snapshot
	if err := json.NewDecoder(f).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	client := store.NewMemoryClient()
	ctx := context.Background()
	if err := client.PutCrates(ctx, dump.Crates); err != nil {
		return nil, err
	}
	if err := client.PutVersions(ctx, dump.Versions); err != nil {
		return nil, err
	}
	if err := client.PutEdges(ctx, dump.Edges); err != nil {
		return nil, err
	}
	return client, nil
}
