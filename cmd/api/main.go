package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	apimarketdata "mna_valuation/pkg/api/marketdata"
	apivaluation "mna_valuation/pkg/api/valuation"
	"mna_valuation/pkg/config"
	"mna_valuation/pkg/core/marketdata"
	"mna_valuation/pkg/core/store"
	"mna_valuation/pkg/core/valuation"
)

func main() {
	godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/server.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	orgID := uuid.Nil
	if cfg.MarketData.OrganizationID != "" {
		orgID, err = uuid.Parse(cfg.MarketData.OrganizationID)
		if err != nil {
			log.Fatalf("[FATAL] invalid market_data.organization_id: %v", err)
		}
	}

	// Database is optional: without one the server still runs every
	// calculation, it just cannot persist or look valuations back up.
	ctx := context.Background()
	var (
		valuationRepo *store.ValuationRepo
		snapshotRepo  *store.SnapshotRepo
		reportRepo    *store.ReportRepo
	)
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("[FATAL] database: %v", err)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatalf("[FATAL] migrate: %v", err)
		}
		valuationRepo = store.NewValuationRepo(pool)
		snapshotRepo = store.NewSnapshotRepo(pool)
		reportRepo = store.NewReportRepo(pool)
		log.Printf("[STORE] connected, schema current")
	} else {
		log.Printf("[STORE] no DATABASE_URL, running without persistence")
	}

	// Market data accessor
	provider := marketdata.NewScrapingProvider(cfg.MarketData.BaseURL)
	var snapshots marketdata.SnapshotStore
	if snapshotRepo != nil {
		snapshots = snapshotRepo
	}
	market := marketdata.NewService(provider, snapshots, orgID)

	// Valuation services. A nil repo must stay a nil interface, hence the
	// indirection.
	var valuationStore valuation.Store
	if valuationRepo != nil {
		valuationStore = valuationRepo
	}
	dcfSvc := valuation.NewDCFService(valuationStore, market)
	compsSvc := valuation.NewCompsService(valuationStore)
	precedentSvc := valuation.NewPrecedentService(valuationStore)
	lboSvc := valuation.NewLBOService(valuationStore)
	masterSvc := valuation.NewMasterService(valuationStore, dcfSvc, compsSvc, precedentSvc, lboSvc)

	// Handlers
	valuationHandler := apivaluation.NewHandler(masterSvc, dcfSvc, lboSvc,
		valuationRepo, reportRepo, cfg.Reports.OutputDir, orgID)
	marketHandler := apimarketdata.NewHandler(market)

	http.HandleFunc("/api/valuation/comprehensive", valuationHandler.HandleComprehensive)
	http.HandleFunc("/api/valuation/dcf", valuationHandler.HandleDCF)
	http.HandleFunc("/api/valuation/lbo", valuationHandler.HandleLBO)
	http.HandleFunc("/api/valuation/get", valuationHandler.HandleGet)
	http.HandleFunc("/api/valuation/status", valuationHandler.HandleStatus)
	http.HandleFunc("/api/valuation/delete", valuationHandler.HandleDelete)
	http.HandleFunc("/api/valuation/report", valuationHandler.HandleReport)
	http.HandleFunc("/api/marketdata/current", marketHandler.HandleCurrent)
	http.HandleFunc("/api/marketdata/refresh", marketHandler.HandleRefresh)

	log.Printf("API server starting on %s", cfg.Addr())
	log.Printf("  - POST /api/valuation/comprehensive")
	log.Printf("  - POST /api/valuation/dcf")
	log.Printf("  - POST /api/valuation/lbo")
	log.Printf("  - GET  /api/valuation/get")
	log.Printf("  - POST /api/valuation/status")
	log.Printf("  - POST /api/valuation/delete")
	log.Printf("  - POST /api/valuation/report")
	log.Printf("  - GET  /api/marketdata/current")
	log.Printf("  - POST /api/marketdata/refresh")

	if err := http.ListenAndServe(cfg.Addr(), nil); err != nil {
		log.Fatalf("[FATAL] server failed to start: %v", err)
	}
}
