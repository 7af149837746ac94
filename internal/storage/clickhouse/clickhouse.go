// Package clickhouse implements the price history store on ClickHouse.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const (
	nativePort         = "9000"
	defaultDialTimeout = 10 * time.Second
)

// Conn is a ClickHouse native-protocol connection.
type Conn struct {
	driver.Conn
}

// NewConn connects to the database named in dsn.
func NewConn(ctx context.Context, dsn string) (*Conn, error) {
	opts, err := parseOptions(dsn)
	if err != nil {
		return nil, err
	}
	return open(ctx, opts)
}

// NewConnWithDatabase connects like NewConn but overrides the database.
// An empty database selects the server default, which is where databases get created.
func NewConnWithDatabase(ctx context.Context, dsn, database string) (*Conn, error) {
	opts, err := parseOptions(dsn)
	if err != nil {
		return nil, err
	}
	opts.Auth.Database = database
	return open(ctx, opts)
}

// DatabaseName returns the database selected by dsn.
func DatabaseName(dsn string) (string, error) {
	opts, err := parseOptions(dsn)
	if err != nil {
		return "", err
	}
	if opts.Auth.Database == "" {
		return "", errors.New("clickhouse dsn missing database")
	}
	return opts.Auth.Database, nil
}

func open(ctx context.Context, opts *clickhouse.Options) (*Conn, error) {
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse %v: %w", opts.Addr, err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse %v: %w", opts.Addr, err)
	}
	return &Conn{Conn: conn}, nil
}

// parseOptions builds driver options from a clickhouse:// DSN.
// Driver query parameters (dial_timeout, compress, secure, ...) are honoured.
// Hosts without a port get the native port, and LZ4 is used unless compress is set.
func parseOptions(dsn string) (*clickhouse.Options, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}

	addrs := opts.Addr[:0]
	for _, addr := range opts.Addr {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, nativePort)
		}
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, errors.New("parse clickhouse dsn: missing host")
	}
	opts.Addr = addrs

	if opts.DialTimeout == 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.Compression == nil {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}
	opts.ClientInfo.Products = append(opts.ClientInfo.Products, struct {
		Name    string
		Version string
	}{Name: "alpha-move", Version: "1"})

	return opts, nil
}
