package server

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/jask/bucketd/internal/config"
	"github.com/jask/bucketd/internal/database/repository"
	"github.com/jask/bucketd/internal/importer"
	"github.com/jask/bucketd/internal/service"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	Log *logrus.Logger
	UI  config.UIConfig

	Import    *service.ImportService
	Rules     *service.RulesService
	Transfers *service.TransferService
	Reports   *service.ReportService

	Transactions *repository.TransactionRepo
	Tags         *repository.TagRepo
	Formats      *repository.FormatRepo
	Imports      *repository.ImportRepo
	Aliases      *repository.AliasRepo
	TagRules     *repository.TagRuleRepo
	Budgets      *repository.BudgetRepo
	Dashboards   *repository.DashboardRepo
	Settings     *repository.SettingsRepo
}

// New wires repositories and services around an open database.
func New(db *sql.DB, log *logrus.Logger, builtins []importer.BuiltinFormat, ui config.UIConfig, sampleSize, maxRows int) *Server {
	transactions := repository.NewTransactionRepo(db)
	tags := repository.NewTagRepo(db)
	formats := repository.NewFormatRepo(db)
	imports := repository.NewImportRepo(db)
	aliases := repository.NewAliasRepo(db)
	tagRules := repository.NewTagRuleRepo(db)

	rules := &service.RulesService{
		DB:           db,
		Transactions: transactions,
		Aliases:      aliases,
		TagRules:     tagRules,
		Log:          log,
	}
	return &Server{
		Log: log,
		UI:  ui,
		Import: &service.ImportService{
			Transactions: transactions,
			Tags:         tags,
			Formats:      formats,
			Imports:      imports,
			Rules:        rules,
			Builtins:     builtins,
			Log:          log,
			SampleSize:   sampleSize,
			MaxRows:      maxRows,
		},
		Rules:     rules,
		Transfers: &service.TransferService{Transactions: transactions, Tags: tags},
		Reports: &service.ReportService{
			Transactions: transactions,
			Tags:         tags,
			Budgets:      repository.NewBudgetRepo(db),
		},
		Transactions: transactions,
		Tags:         tags,
		Formats:      formats,
		Imports:      imports,
		Aliases:      aliases,
		TagRules:     tagRules,
		Budgets:      repository.NewBudgetRepo(db),
		Dashboards:   repository.NewDashboardRepo(db),
		Settings:     repository.NewSettingsRepo(db),
	}
}

// Router builds the chi mux with all API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/import", func(r chi.Router) {
			r.Post("/analyze", s.handleAnalyze)
			r.Get("/formats", s.handleListBuiltinFormats)
			r.Get("/history", s.handleImportHistory)
			r.Route("/custom", func(r chi.Router) {
				r.Post("/preview", s.handleImportPreview)
				r.Post("/apply", s.handleImportApply)
				r.Route("/configs", func(r chi.Router) {
					r.Get("/", s.handleListConfigs)
					r.Post("/", s.handleCreateConfig)
					r.Get("/{id}", s.handleGetConfig)
					r.Put("/{id}", s.handleUpdateConfig)
					r.Delete("/{id}", s.handleDeleteConfig)
				})
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Patch("/{id}", s.handlePatchTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
			r.Put("/{id}/tags", s.handleReplaceTransactionTags)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		r.Route("/aliases", func(r chi.Router) {
			r.Get("/", s.handleListAliases)
			r.Post("/", s.handleUpsertAlias)
			r.Delete("/{id}", s.handleDeleteAlias)
		})

		r.Route("/tag-rules", func(r chi.Router) {
			r.Get("/", s.handleListTagRules)
			r.Post("/", s.handleUpsertTagRule)
			r.Delete("/{id}", s.handleDeleteTagRule)
			r.Post("/dry-run", s.handleTagRulesDryRun)
			r.Post("/apply", s.handleTagRulesApply)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/candidates", s.handleTransferCandidates)
			r.Post("/confirm", s.handleTransferConfirm)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleUpsertBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/budgets", s.handleBudgetReport)
			r.Get("/spend-by-bucket", s.handleSpendByBucket)
			r.Get("/daily-spend", s.handleDailySpend)
			r.Get("/summary", s.handleMonthSummary)
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Get("/", s.handleListDashboards)
			r.Post("/", s.handleUpsertDashboard)
			r.Get("/{id}", s.handleGetDashboard)
			r.Delete("/{id}", s.handleDeleteDashboard)
			r.Post("/{id}/widgets", s.handleUpsertWidget)
			r.Delete("/{id}/widgets/{widgetID}", s.handleDeleteWidget)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Put("/", s.handlePutSettings)
		})
	})
	return r
}
