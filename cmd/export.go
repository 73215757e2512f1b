package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/export"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the company collection as CSV or JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.Err(); err != nil {
			return eris.Wrap(err, "export")
		}

		companies := env.Store.Companies()

		var out []byte
		switch exportFormat {
		case "csv":
			s, err := export.CSV(companies)
			if err != nil {
				return eris.Wrap(err, "export csv")
			}
			out = []byte(s)
		case "json":
			b, err := export.JSON(companies, time.Now())
			if err != nil {
				return eris.Wrap(err, "export json")
			}
			out = b
		default:
			return eris.Errorf("unknown format: %s", exportFormat)
		}

		if exportOutput == "" {
			fmt.Print(string(out))
			return nil
		}

		if err := os.WriteFile(exportOutput, out, 0o644); err != nil {
			return eris.Wrap(err, "write export file")
		}
		zap.L().Info("export written",
			zap.String("file", exportOutput),
			zap.String("format", exportFormat),
			zap.Int("companies", len(companies)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
