/*
cargograph-ingest runs once against a relational source (Postgres by
default), resolves dependency edges into an in-process store, and writes
that store to the -dump path as a JSON snapshot that cargograph-server
-fixture can load directly. Both -dsn and -dump are required; there is no
mode that writes to a remote graph store.
*/
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cargodeps/graph/ingest"
	"github.com/cargodeps/graph/store"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cargograph-ingest -dsn <postgres-dsn> -dump <snapshot.json>\n")
		flag.PrintDefaults()
	}
	dsn := flag.String("dsn", "", "database/sql data source name for the relational source")
	dumpPath := flag.String("dump", "", "write the resulting graph snapshot as JSON to this path")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *dsn == "" || *dumpPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	src := ingest.NewPostgresSource(db)
	dst := store.NewMemoryClient()

	ctx := context.Background()
	if _, err := ingest.Run(ctx, src, dst, logger); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	if err := dump(dst, *dumpPath); err != nil {
		logger.Error("dump snapshot", "path", *dumpPath, "error", err)
		os.Exit(1)
	}
	logger.Info("snapshot written", "path", *dumpPath)
}

func dump(m *store.MemoryClient, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snapshot := m.Snapshot()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
