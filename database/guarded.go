package database

// GuardedDatabase is a Database whose every execution runs through a
// CircuitBreaker named after the backend.
type GuardedDatabase struct {
	*Database
	breaker *CircuitBreaker
}

// NewGuarded creates a GuardedDatabase. cfg.RetryInterval sets the breaker
// cooldown and falls back to DefaultRetryInterval.
func NewGuarded(cfg Config, driver Driver) (*GuardedDatabase, error) {
	db, err := New(cfg, driver)
	if err != nil {
		return nil, err
	}

	g := &GuardedDatabase{
		Database: db,
		breaker:  NewCircuitBreaker(cfg.Name, cfg.RetryInterval, driver, nil),
	}
	db.guard = g.breaker.Execute
	return g, nil
}

// WithLogger attaches a logger to the database and its breaker.
// This method uses the builder pattern and returns the database for method chaining.
func (g *GuardedDatabase) WithLogger(logger Logger) *GuardedDatabase {
	g.Database.WithLogger(logger)
	g.breaker.logger = logger
	return g
}

// Breaker returns the breaker guarding this database.
func (g *GuardedDatabase) Breaker() *CircuitBreaker {
	return g.breaker
}
