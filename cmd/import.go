package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/loader"
)

var importPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a prospect corpus and merge saved user edits",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := importPath
		if path == "" {
			path = cfg.Data.CorpusPath
		}

		companies, err := loader.LoadFile(path, time.Now())
		if err != nil {
			return eris.Wrap(err, "import corpus")
		}

		kv, err := kvstore.Open(cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open kv store")
		}
		defer kv.Close()

		companies = loader.MergeUserEdits(companies, kv)

		byStatus := map[string]int{}
		for _, c := range companies {
			byStatus[string(c.Status)]++
		}

		zap.L().Info("import complete",
			zap.String("corpus", path),
			zap.Int("companies", len(companies)),
			zap.Any("by_status", byStatus),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importPath, "corpus", "", "path to corpus JSON (default from config)")
	rootCmd.AddCommand(importCmd)
}
