// Command export-statement renders a flow's comparative statement workbook
// to a local file, for use outside the HTTP surface.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/models"
	"github.com/arjunv/procure-flow/internal/registry"
	"github.com/arjunv/procure-flow/internal/repository"
	"github.com/arjunv/procure-flow/internal/statement"
	"github.com/arjunv/procure-flow/pkg/database"
	"github.com/arjunv/procure-flow/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	dbPath := flag.String("db", "data/procurement.db", "path to the workflow database")
	flowID := flag.String("flow", "", "flow id to export")
	out := flag.String("out", "comparative-statement.xlsx", "output path")
	flag.Parse()

	if *flowID == "" {
		fmt.Fprintln(os.Stderr, "usage: export-statement -flow <flow-id> [-db path] [-out path]")
		os.Exit(2)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", OutputPath: "stderr", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{Path: *dbPath, MaxOpenConns: 1, MaxIdleConns: 1}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	flowRepo := repository.NewFlowRepository(db.DB, logger)

	inst, err := flowRepo.GetByFlowAndStep(*flowID, int(registry.StepComparativeStatement))
	if err != nil {
		logger.Fatal("Failed to read flow", zap.Error(err))
	}
	if inst == nil {
		inst, err = flowRepo.GetActive(*flowID)
		if err != nil {
			logger.Fatal("Failed to read flow", zap.Error(err))
		}
	}
	if inst == nil {
		logger.Fatal("Flow not found", zap.String("flow_id", *flowID))
	}

	payload, err := models.ParsePayload(inst.Payload)
	if err != nil {
		logger.Fatal("Failed to parse payload", zap.Error(err))
	}

	writer := statement.NewWriter(logger)
	if err := writer.SaveTo(*flowID, payload, *out); err != nil {
		logger.Fatal("Failed to export statement", zap.Error(err))
	}

	fmt.Println(*out)
}
