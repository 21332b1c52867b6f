package sqldriver

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/cockroachdb/errors"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

const (
	operationExec  = "exec"
	operationQuery = "query"
	statusSuccess  = "success"
	statusError    = "error"

	logMsgStatementExecuted = "statement executed"
	logMsgStatementFailed   = "statement execution failed"
	logAttrStatement        = "statement"
	logAttrOperation        = "operation"
	logAttrDurationMS       = "duration_ms"
	logAttrError            = "error"

	labelOperation = "operation"
	labelStatus    = "status"

	metricStatementDuration  = "sniffer_statement_duration"
	metricStatementsExecuted = "sniffer_statements_executed"
	metricStatementErrors    = "sniffer_statement_errors"

	spanNameStatement = "sniffer.statement"
	statusSkipped     = "skipped"
)

var (
	// ErrNilDriver occurs when Wrap or Register is given a nil driver.
	ErrNilDriver = errors.New("driver must not be nil")

	// ErrNilConnector occurs when WrapConnector is given a nil connector.
	ErrNilConnector = errors.New("connector must not be nil")
)

// config carries the tracker and the observability collaborators shared by
// every conn and stmt created through one wrapped driver.
type config struct {
	tracker          *sniffer.Tracker
	logger           sniffer.Logger
	contextualLogger sniffer.ContextualLogger
	metrics          sniffer.MetricsCollector
	tracing          sniffer.TracingCollector
}

func newConfig(options []Option) (*config, error) {
	cfg := &config{tracker: sniffer.Default()}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Driver wraps a database/sql driver so that every statement executed through
// it is recorded with a sniffer.Tracker.
type Driver struct {
	underlying driver.Driver
	cfg        *config
}

// Compile-time checks that Driver implements the driver interfaces.
var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
)

// Wrap creates a recording driver around the given one.
func Wrap(d driver.Driver, options ...Option) (*Driver, error) {
	if d == nil {
		return nil, ErrNilDriver
	}

	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}

	return &Driver{underlying: d, cfg: cfg}, nil
}

// Register wraps the given driver and registers the wrapper with database/sql
// under the given name, so sql.Open(name, dsn) opens recording connections.
// Like sql.Register, registering the same name twice panics.
func Register(name string, d driver.Driver, options ...Option) error {
	wrapped, err := Wrap(d, options...)
	if err != nil {
		return err
	}

	sql.Register(name, wrapped)

	return nil
}

// WrapConnector creates a recording connector around an existing one, for
// drivers that are opened through sql.OpenDB instead of a DSN.
func WrapConnector(c driver.Connector, options ...Option) (driver.Connector, error) {
	if c == nil {
		return nil, ErrNilConnector
	}

	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}

	wrapped := &Driver{underlying: c.Driver(), cfg: cfg}

	return &connector{underlying: c, driver: wrapped}, nil
}

// Open implements driver.Driver.
func (d *Driver) Open(name string) (driver.Conn, error) {
	underlyingConn, err := d.underlying.Open(name)
	if err != nil {
		return nil, err
	}

	return &conn{underlying: underlyingConn, cfg: d.cfg}, nil
}

// OpenConnector implements driver.DriverContext. Underlying drivers without
// connector support are adapted through a DSN-holding connector, the same way
// database/sql adapts them internally.
func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	if underlyingDriver, ok := d.underlying.(driver.DriverContext); ok {
		underlyingConnector, err := underlyingDriver.OpenConnector(name)
		if err != nil {
			return nil, err
		}

		return &connector{underlying: underlyingConnector, driver: d}, nil
	}

	return dsnConnector{dsn: name, driver: d}, nil
}

// connector wraps a driver.Connector so that the conns it produces record.
type connector struct {
	underlying driver.Connector
	driver     *Driver
}

// Connect implements driver.Connector.
func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	underlyingConn, err := c.underlying.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return &conn{underlying: underlyingConn, cfg: c.driver.cfg}, nil
}

// Driver implements driver.Connector.
func (c *connector) Driver() driver.Driver {
	return c.driver
}

// dsnConnector adapts a driver without driver.DriverContext support.
type dsnConnector struct {
	dsn    string
	driver *Driver
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver {
	return c.driver
}
