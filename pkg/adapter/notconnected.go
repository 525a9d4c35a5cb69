package adapter

import (
	"context"
	"database/sql/driver"
)

// notConnectedConnector backs the placeholder row returned by QueryRow on an
// adapter that has not been connected yet.
type notConnectedConnector struct{}

func (notConnectedConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, ErrNotConnected
}

func (notConnectedConnector) Driver() driver.Driver {
	return notConnectedDriver{}
}

type notConnectedDriver struct{}

func (notConnectedDriver) Open(string) (driver.Conn, error) {
	return nil, ErrNotConnected
}
