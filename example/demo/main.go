// Demo wires statement sniffing into all three common PostgreSQL access
// paths: database/sql through a wrapped driver, sqlx on top of that driver,
// and a pgx pool with the statement tracer attached.
//
// It needs a running PostgreSQL instance, see PostgresDemoDSN.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
	"github.com/sniffdb/sql-sniffer-go/sniffer/pgxtracer"
	"github.com/sniffdb/sql-sniffer-go/sniffer/slogadapters"
	"github.com/sniffdb/sql-sniffer-go/sniffer/sqldriver"
)

const (
	driverName      = "sniffed-postgres"
	postgresDialect = "postgres"
	ordersTable     = "demo_orders"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	logger := slogadapters.NewSlogLogger(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tracker, err := sniffer.New(sniffer.WithLogger(logger))
	if err != nil {
		return err
	}

	if err := sqldriver.Register(driverName, &pq.Driver{},
		sqldriver.WithTracker(tracker),
		sqldriver.WithContextualLogger(logger)); err != nil {
		return err
	}
	sqlx.BindDriver(driverName, sqlx.DOLLAR)

	db := PostgresSQLXDemoConfig(driverName)
	defer func() { _ = db.Close() }()

	if err := createSchema(ctx, db); err != nil {
		return err
	}

	if err := demoExpectations(ctx, tracker, db); err != nil {
		return err
	}

	if err := demoGuardedWork(ctx, tracker, db); err != nil {
		return err
	}

	if err := demoOtherContexts(ctx, tracker, db); err != nil {
		return err
	}

	if err := demoPGXPool(ctx, tracker, logger); err != nil {
		return err
	}

	log.Printf("Demo finished, %d statements recorded in total", tracker.GlobalCount())

	return nil
}

func createSchema(ctx context.Context, db *sqlx.DB) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS demo_orders (
			id TEXT PRIMARY KEY,
			customer TEXT NOT NULL,
			amount_cents BIGINT NOT NULL
		)`

	_, err := db.ExecContext(ctx, createTableSQL)

	return err
}

// demoExpectations shows the basic cycle: take a spy, declare what the code
// under observation is allowed to do, run it, close the spy.
func demoExpectations(ctx context.Context, tracker *sniffer.Tracker, db *sqlx.DB) error {
	spy := tracker.Spy().ExpectExactly(2)

	insertSQL, insertArgs, err := goqu.Dialect(postgresDialect).
		Insert(ordersTable).
		Rows(goqu.Record{"id": uuid.New().String(), "customer": "Ada", "amount_cents": 4200}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	if _, execErr := db.ExecContext(ctx, insertSQL, insertArgs...); execErr != nil {
		return execErr
	}

	querySQL, queryArgs, err := goqu.Dialect(postgresDialect).
		From(ordersTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("customer").Eq("Ada")).
		Prepared(true).
		ToSQL()
	if err != nil {
		return err
	}

	var orders int
	if queryErr := db.GetContext(ctx, &orders, querySQL, queryArgs...); queryErr != nil {
		return queryErr
	}

	log.Printf("Orders for Ada: %d", orders)

	return spy.Close()
}

// demoGuardedWork shows the wrapper style: the spy runs the work itself and
// verifies right after it, keeping work error and verification failure apart.
func demoGuardedWork(ctx context.Context, tracker *sniffer.Tracker, db *sqlx.DB) error {
	spy := tracker.Spy().ExpectAtMostOnce()

	err := spy.Execute(func() error {
		_, execErr := db.ExecContext(ctx,
			`UPDATE demo_orders SET amount_cents = amount_cents + 100 WHERE customer = $1`, "Ada")

		return execErr
	})
	if err != nil {
		return err
	}

	return spy.Close()
}

// demoOtherContexts shows scoped expectations: the spy's own goroutine must
// stay silent while exactly one statement runs on another goroutine.
func demoOtherContexts(ctx context.Context, tracker *sniffer.Tracker, db *sqlx.DB) error {
	spy := tracker.Spy().
		ExpectNever().
		ExpectExactly(1, sniffer.OtherContexts)

	var wg sync.WaitGroup
	var workErr error

	wg.Add(1)
	go func() {
		defer wg.Done()

		_, workErr = db.ExecContext(ctx, `DELETE FROM demo_orders WHERE customer = $1`, "Nobody")
	}()
	wg.Wait()

	if workErr != nil {
		return workErr
	}

	return spy.Close()
}

// demoPGXPool shows the pgx path: one direct exec plus a batch of two
// statements, each counted individually by the tracer.
func demoPGXPool(ctx context.Context, tracker *sniffer.Tracker, logger *slogadapters.SlogLogger) error {
	tracer, err := pgxtracer.New(
		pgxtracer.WithTracker(tracker),
		pgxtracer.WithContextualLogger(logger))
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, PostgresPGXPoolDemoConfig(tracer))
	if err != nil {
		return err
	}
	defer pool.Close()

	spy := tracker.Spy().ExpectExactly(3)

	if _, execErr := pool.Exec(ctx,
		`INSERT INTO demo_orders (id, customer, amount_cents) VALUES ($1, $2, $3)`,
		uuid.New().String(), "Grace", 9900); execErr != nil {
		return execErr
	}

	batch := &pgx.Batch{}
	batch.Queue(`UPDATE demo_orders SET amount_cents = amount_cents + 1 WHERE customer = $1`, "Grace")
	batch.Queue(`SELECT count(*) FROM demo_orders`)

	if batchErr := pool.SendBatch(ctx, batch).Close(); batchErr != nil {
		return batchErr
	}

	return spy.Close()
}
