package database

import (
	"context"
	"time"
)

// ExecuteNonQuery runs cmd and returns the number of rows affected.
func (d *Database) ExecuteNonQuery(ctx context.Context, cmd Command) (int64, error) {
	var affected int64
	err := d.execute(ctx, cmd, func(ctx context.Context, conn Connection) error {
		n, err := conn.Exec(ctx, cmd.Kind, cmd.Text, cmd.Params)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	return affected, err
}

// ExecuteReader runs cmd and returns its complete result set. The rows are
// fully read before the call returns; the connection is already released.
func (d *Database) ExecuteReader(ctx context.Context, cmd Command) (*Rows, error) {
	var rows *Rows
	err := d.execute(ctx, cmd, func(ctx context.Context, conn Connection) error {
		cursor, err := conn.Query(ctx, cmd.Kind, cmd.Text, cmd.Params)
		if err != nil {
			return err
		}
		rows, err = drain(cursor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExecuteScalar runs cmd and returns the first column of the first row,
// or nil when the result is empty.
func (d *Database) ExecuteScalar(ctx context.Context, cmd Command) (any, error) {
	var value any
	err := d.execute(ctx, cmd, func(ctx context.Context, conn Connection) error {
		cursor, err := conn.Query(ctx, cmd.Kind, cmd.Text, cmd.Params)
		if err != nil {
			return err
		}
		value, err = scalar(cursor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// execute validates cmd and runs it through the guard.
func (d *Database) execute(ctx context.Context, cmd Command, action func(context.Context, Connection) error) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	return d.guard(ctx, func(ctx context.Context) error {
		return d.run(ctx, cmd, action)
	})
}

// run is one unit of work: it assigns the request id, publishes the lifecycle
// events and executes action on a freshly opened connection.
func (d *Database) run(ctx context.Context, cmd Command, action func(context.Context, Connection) error) (err error) {
	if d.onExecutionStarting != nil {
		if err := d.onExecutionStarting(ctx); err != nil {
			return err
		}
	}

	event := ExecutionEvent{
		Database:  d.cfg.Name,
		RequestID: d.requestCounter.Add(1),
		Kind:      cmd.Kind,
		Text:      cmd.Text,
		Params:    cmd.Params,
		StartedAt: time.Now(),
	}

	d.events.Publish(ctx, ExecutionStarted, event)
	defer func() {
		event.Err = err
		d.events.Publish(ctx, ExecutionFinished, event)
	}()

	if err = d.attempt(ctx, cmd, action); err != nil {
		event.Err = err
		d.events.Publish(ctx, ExecutionFailed, event)
		return err
	}

	d.events.Publish(ctx, ExecutionSucceeded, event)
	return nil
}

func (d *Database) attempt(ctx context.Context, cmd Command, action func(context.Context, Connection) error) error {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = d.cfg.CommandTimeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := d.driver.Open(ctx, d.UtilizedConnectionString(cmd.ApplicationIntent))
	if err != nil {
		return err
	}
	defer conn.Close()

	return action(ctx, conn)
}
