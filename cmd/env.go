package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/store"
	sf "github.com/sells-group/territory-cli/pkg/salesforce"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		s, err = store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("cmd: unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// initSalesforce authenticates with a JWT bearer flow and wraps the
// session in a rate-limited client.
func initSalesforce() (sf.Client, error) {
	pem, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "cmd: read salesforce key")
	}

	session, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pem),
	})
	if err != nil {
		return nil, eris.Wrap(err, "cmd: salesforce auth")
	}

	return sf.NewClient(session, sf.WithRateLimit(cfg.Salesforce.RateLimitRPS)), nil
}

// buildEngine loads the latest snapshot and rule files and constructs
// an engine over them. The returned account slice aliases the engine's
// roster so write-backs after a pass see proposed owners.
func buildEngine(ctx context.Context, s store.Store) (*engine.Engine, []*model.Account, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	reps, err := s.ListReps(ctx)
	if err != nil {
		return nil, nil, err
	}

	rules, err := engine.LoadRuleSet(cfg.Rules.Path, cfg.Rules.TerritoryPath)
	if err != nil {
		return nil, nil, err
	}

	accountPtrs := make([]*model.Account, len(accounts))
	for i := range accounts {
		accountPtrs[i] = &accounts[i]
	}
	repPtrs := make([]*model.SalesRep, len(reps))
	for i := range reps {
		repPtrs[i] = &reps[i]
	}

	eng, err := engine.New(accountPtrs, repPtrs, rules, cfg.Capacity)
	if err != nil {
		return nil, nil, err
	}
	return eng, accountPtrs, nil
}

// repNamer resolves rep ids to display names for reports.
func repNamer(eng *engine.Engine) func(id string) string {
	return func(id string) string {
		if r := eng.Rep(id); r != nil {
			return r.Name
		}
		return id
	}
}
