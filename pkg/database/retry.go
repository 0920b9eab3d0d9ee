package database

import (
	"context"
	"database/sql/driver"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// backoff describes how SQLITE_BUSY and SQLITE_LOCKED failures are retried.
type backoff struct {
	maxRetries int
	base       time.Duration
	max        time.Duration
}

func newBackoff(maxRetries int) backoff {
	return backoff{maxRetries: maxRetries, base: 50 * time.Millisecond, max: 2 * time.Second}
}

// delay returns the wait before retry number attempt (0-based), with up to
// 25% jitter.
func (b backoff) delay(attempt int) time.Duration {
	d := b.max
	if attempt < 31 {
		if e := b.base << attempt; e > 0 && e < b.max {
			d = e
		}
	}
	if q := int64(d / 4); q > 0 {
		d += time.Duration(rand.Int64N(q))
	}
	if d > b.max {
		d = b.max
	}
	return d
}

// isBusyError reports whether err is a SQLite BUSY or LOCKED error. It
// matches on text so it works with both mattn/go-sqlite3 and
// modernc.org/sqlite behind sqliteshim.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "(5)") ||
		strings.Contains(msg, "(6)")
}

// withRetry runs fn until it succeeds, fails with a non-busy error, the
// retries run out or ctx is done.
func withRetry[T any](ctx context.Context, b backoff, fn func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil || !isBusyError(err) || attempt >= b.maxRetries {
			return v, err
		}

		wait := b.delay(attempt)
		logger.FromContext(ctx).Debug("database busy, retrying", logger.Data{
			"attempt":  attempt + 1,
			"delay_ms": wait.Milliseconds(),
		})

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// driverConnector adapts a plain driver.Driver for sql.OpenDB.
type driverConnector struct {
	driver driver.Driver
	dsn    string
}

func (dc *driverConnector) Connect(_ context.Context) (driver.Conn, error) {
	return dc.driver.Open(dc.dsn)
}

func (dc *driverConnector) Driver() driver.Driver {
	return dc.driver
}

// retryConnector runs the session statements on every new connection and
// hands out connections that retry busy errors.
type retryConnector struct {
	connector driver.Connector
	backoff   backoff
	session   []string
}

func (rc *retryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := rc.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	rconn := &retryConn{conn: conn, backoff: rc.backoff}
	for _, stmt := range rc.session {
		if err := rconn.execSession(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, errors.Wrapf(err, "session statement %q failed", stmt)
		}
	}
	return rconn, nil
}

func (rc *retryConnector) Driver() driver.Driver {
	return rc.connector.Driver()
}

type retryConn struct {
	conn    driver.Conn
	backoff backoff
}

func (c *retryConn) execSession(ctx context.Context, query string) error {
	if _, ok := c.conn.(driver.ExecerContext); ok {
		_, err := c.ExecContext(ctx, query, nil)
		return err
	}
	stmt, err := c.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(nil) //nolint:staticcheck // only option without ExecerContext
	return err
}

func (c *retryConn) wrapStmt(stmt driver.Stmt) driver.Stmt {
	return &retryStmt{stmt: stmt, backoff: c.backoff}
}

func (c *retryConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return c.wrapStmt(stmt), nil
}

func (c *retryConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	pc, ok := c.conn.(driver.ConnPrepareContext)
	if !ok {
		return c.Prepare(query)
	}
	stmt, err := pc.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.wrapStmt(stmt), nil
}

func (c *retryConn) Close() error {
	return c.conn.Close()
}

func (c *retryConn) Begin() (driver.Tx, error) {
	return withRetry(context.Background(), c.backoff, func() (driver.Tx, error) {
		return c.conn.Begin() //nolint:staticcheck // required by driver.Conn
	})
}

func (c *retryConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	bt, ok := c.conn.(driver.ConnBeginTx)
	if !ok {
		return c.Begin()
	}
	return withRetry(ctx, c.backoff, func() (driver.Tx, error) {
		return bt.BeginTx(ctx, opts)
	})
}

func (c *retryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ex, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return withRetry(ctx, c.backoff, func() (driver.Result, error) {
		return ex.ExecContext(ctx, query, args)
	})
}

func (c *retryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	q, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return withRetry(ctx, c.backoff, func() (driver.Rows, error) {
		return q.QueryContext(ctx, query, args)
	})
}

func (c *retryConn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *retryConn) ResetSession(ctx context.Context) error {
	if r, ok := c.conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

func (c *retryConn) IsValid() bool {
	if v, ok := c.conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

type retryStmt struct {
	stmt    driver.Stmt
	backoff backoff
}

func (s *retryStmt) Close() error {
	return s.stmt.Close()
}

func (s *retryStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *retryStmt) Exec(args []driver.Value) (driver.Result, error) {
	return withRetry(context.Background(), s.backoff, func() (driver.Result, error) {
		return s.stmt.Exec(args) //nolint:staticcheck // required by driver.Stmt
	})
}

func (s *retryStmt) Query(args []driver.Value) (driver.Rows, error) {
	return withRetry(context.Background(), s.backoff, func() (driver.Rows, error) {
		return s.stmt.Query(args) //nolint:staticcheck // required by driver.Stmt
	})
}

func (s *retryStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := s.stmt.(driver.StmtExecContext)
	if !ok {
		return s.Exec(namedValues(args))
	}
	return withRetry(ctx, s.backoff, func() (driver.Result, error) {
		return ec.ExecContext(ctx, args)
	})
}

func (s *retryStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := s.stmt.(driver.StmtQueryContext)
	if !ok {
		return s.Query(namedValues(args))
	}
	return withRetry(ctx, s.backoff, func() (driver.Rows, error) {
		return qc.QueryContext(ctx, args)
	})
}

func namedValues(args []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg.Value
	}
	return values
}
