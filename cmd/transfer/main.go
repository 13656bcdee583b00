// The transfer command is a one-shot export/import tool for the local
// record database, the offline path for moving records between two
// installations.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/store"
	boltbackend "brightlens.dev/optivault/internal/store/bolt"
	"brightlens.dev/optivault/internal/transfer"
	"brightlens.dev/optivault/pkg/zerolog_config"
)

func main() {
	var (
		dbPath     = flag.String("db", "optivault.db", "path to the local record database")
		doExport   = flag.Bool("export", false, "export the collection to a file")
		exportDir  = flag.String("dir", ".", "directory to write the export artifact into")
		importFile = flag.String("import", "", "path of an export artifact to merge in")
	)
	flag.Parse()

	zerolog_config.Startup("optivault-transfer", os.Getenv("ELASTICSEARCH_URL"))

	if *doExport == (*importFile != "") {
		log.Fatal().Msg("Exactly one of -export or -import is required")
	}

	backend, err := boltbackend.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record database")
	}
	defer backend.Close()

	codec := transfer.NewCodec(store.New(backend))
	ctx := context.Background()

	if *doExport {
		path, err := codec.ExportToFile(ctx, *exportDir)
		if err != nil {
			if errors.Is(err, transfer.ErrNothingToExport) {
				log.Info().Msg("No records to export")
				return
			}
			log.Fatal().Err(err).Msg("Export failed")
		}
		log.Info().
			Str("path", path).
			Msg("Export completed")
		return
	}

	data, err := os.ReadFile(*importFile)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("path", *importFile).
			Msg("Failed to read import file")
	}

	result, err := codec.Import(ctx, data)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("path", *importFile).
			Msg("Import failed")
	}

	log.Info().
		Int("parsed", result.Parsed).
		Int("added", result.Added).
		Msg("Import completed")
}
