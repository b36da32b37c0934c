package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assignment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		api := &apiServer{
			store: s,
			newEngine: func(ctx context.Context) (*engine.Engine, []*model.Account, error) {
				return buildEngine(ctx, s)
			},
		}
		r := buildRouter(api)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", cfg.Server.Port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		zap.L().Info("serve: stopped")
		return nil
	},
}

type apiServer struct {
	store     store.Store
	newEngine func(ctx context.Context) (*engine.Engine, []*model.Account, error)
}

// buildRouter assembles the API routes around the server's handlers.
func buildRouter(api *apiServer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", api.handleHealth)
	r.Post("/passes", api.handleRunPass)
	r.Get("/passes/latest", api.handleLatestPass)
	r.Get("/passes/{id}", api.handleGetPass)
	r.Post("/accounts/{id}/reassign", api.handleReassign)
	r.Post("/accounts/{id}/lock", api.handleLock)
	r.Get("/accounts/{id}/audit", api.handleAudit)
	return r
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleRunPass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eng, accounts, err := a.newEngine(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	result, err := eng.RunPass()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rec := store.PassRecord{
		ID:            result.PassID,
		CreatedAt:     time.Now().UTC(),
		Proposals:     result.Proposals,
		Warnings:      result.Warnings,
		UnassignedIDs: result.UnassignedIDs,
	}
	if err := a.store.SavePass(ctx, rec); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, acct := range accounts {
		if err := a.store.UpdateAccount(ctx, *acct); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *apiServer) handleLatestPass(w http.ResponseWriter, r *http.Request) {
	pass, err := a.store.LatestPass(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if pass == nil {
		writeError(w, http.StatusNotFound, errors.New("no pass found"))
		return
	}
	writeJSON(w, http.StatusOK, pass)
}

func (a *apiServer) handleGetPass(w http.ResponseWriter, r *http.Request) {
	pass, err := a.store.GetPass(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if pass == nil {
		writeError(w, http.StatusNotFound, errors.New("pass not found"))
		return
	}
	writeJSON(w, http.StatusOK, pass)
}

// reassignBody mirrors engine.ReassignRequest minus the account id,
// which comes from the URL. Confirm acknowledges split or lock
// override warnings; without it a warned plan is rejected with 409.
type reassignBody struct {
	NewOwnerID      string `json:"new_owner_id"`
	IncludeChildren bool   `json:"include_children"`
	MoveOnlyThis    bool   `json:"move_only_this"`
	OverrideLocks   bool   `json:"override_locks"`
	Rationale       string `json:"rationale"`
	Confirm         bool   `json:"confirm"`
}

func (a *apiServer) handleReassign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body reassignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	eng, _, err := a.newEngine(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	plan, err := eng.PlanReassignment(engine.ReassignRequest{
		AccountID:       chi.URLParam(r, "id"),
		NewOwnerID:      body.NewOwnerID,
		IncludeChildren: body.IncludeChildren,
		MoveOnlyThis:    body.MoveOnlyThis,
		OverrideLocks:   body.OverrideLocks,
		Rationale:       body.Rationale,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if plan.RequiresConfirmation() {
		if !body.Confirm {
			state := plan.State()
			plan.Cancel()
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":    "confirmation required",
				"state":    state,
				"warnings": plan.Warnings(),
				"skipped":  plan.SkippedLocked(),
			})
			return
		}
		plan.Confirm()
	}

	result, err := plan.Apply()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}

	for _, acct := range result.Affected {
		if err := a.store.UpdateAccount(ctx, *acct); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	if err := a.store.SaveAudit(ctx, result.Audit); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type lockBody struct {
	Locked bool   `json:"locked"`
	Reason string `json:"reason"`
}

func (a *apiServer) handleLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body lockBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	eng, _, err := a.newEngine(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	account, audit, err := eng.SetLock(chi.URLParam(r, "id"), body.Locked, body.Reason)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.store.UpdateAccount(ctx, *account); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := a.store.SaveAudit(ctx, *audit); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (a *apiServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := a.store.ListAudit(r.Context(), chi.URLParam(r, "id"), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
