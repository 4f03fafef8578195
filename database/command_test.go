package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifyConnectionString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base   string
		intent ApplicationIntent
		want   string
	}{
		{"server=db;database=users", IntentUnspecified, "server=db;database=users"},
		{"server=db;database=users", IntentReadOnly, "server=db;database=users;applicationintent=ReadOnly"},
		{"server=db;database=users;", IntentReadOnly, "server=db;database=users;applicationintent=ReadOnly"},
		{"server=db", IntentReadWrite, "server=db;applicationintent=ReadWrite"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, QualifyConnectionString(tc.base, tc.intent))
	}
}

func TestSplitApplicationIntent(t *testing.T) {
	t.Parallel()

	base, intent := SplitApplicationIntent("user:pw@tcp(db:3306)/users;applicationintent=ReadOnly")
	assert.Equal(t, "user:pw@tcp(db:3306)/users", base)
	assert.Equal(t, IntentReadOnly, intent)

	base, intent = SplitApplicationIntent("host=db dbname=users")
	assert.Equal(t, "host=db dbname=users", base)
	assert.Equal(t, IntentUnspecified, intent)

	base, intent = SplitApplicationIntent(QualifyConnectionString("host=db", IntentReadWrite))
	assert.Equal(t, "host=db", base)
	assert.Equal(t, IntentReadWrite, intent)
}

func TestSplitApplicationIntent_OnlyTrailingQualifier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		in         string
		wantBase   string
		wantIntent ApplicationIntent
	}{
		{
			name:       "key inside password",
			in:         "host=db password=x;applicationintent=y dbname=users",
			wantBase:   "host=db password=x;applicationintent=y dbname=users",
			wantIntent: IntentUnspecified,
		},
		{
			name:       "key without separator",
			in:         "app:applicationintent=ReadOnly@tcp(db:3306)/users",
			wantBase:   "app:applicationintent=ReadOnly@tcp(db:3306)/users",
			wantIntent: IntentUnspecified,
		},
		{
			name:       "password with key and appended qualifier",
			in:         "host=db password=a;applicationintent=b;applicationintent=ReadOnly",
			wantBase:   "host=db password=a;applicationintent=b",
			wantIntent: IntentReadOnly,
		},
		{
			name:       "qualifier followed by more settings",
			in:         "server=db;applicationintent=ReadOnly;database=users",
			wantBase:   "server=db;applicationintent=ReadOnly;database=users",
			wantIntent: IntentUnspecified,
		},
		{
			name:       "case insensitive key",
			in:         "server=db;ApplicationIntent=readonly",
			wantBase:   "server=db",
			wantIntent: IntentReadOnly,
		},
	}
	for _, tc := range cases {
		base, intent := SplitApplicationIntent(tc.in)
		assert.Equal(t, tc.wantBase, base, tc.name)
		assert.Equal(t, tc.wantIntent, intent, tc.name)
	}
}

func TestCommandConstructors(t *testing.T) {
	t.Parallel()

	p := Procedure("Users_Get", 1)
	assert.Equal(t, CommandStoredProcedure, p.Kind)
	assert.Equal(t, []any{1}, p.Params)

	q := Text("SELECT 1")
	assert.Equal(t, CommandText, q.Kind)
	assert.Empty(t, q.Params)

	assert.Equal(t, CommandStoredProcedure, Command{}.Kind, "zero value is a stored procedure")
	assert.ErrorIs(t, Command{}.validate(), ErrInvalidArgument)
}

func TestEventBus_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(nil)
	var calls int
	unsubscribe := bus.Subscribe(ExecutionStarted, func(context.Context, ExecutionEvent) { calls++ })
	other := bus.Subscribe(ExecutionStarted, func(context.Context, ExecutionEvent) {})
	require.Equal(t, 2, bus.ListenerCount(ExecutionStarted))
	assert.Equal(t, 0, bus.ListenerCount(ExecutionFinished))

	bus.Publish(context.Background(), ExecutionStarted, ExecutionEvent{RequestID: 1})
	assert.Equal(t, 1, calls)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 1, bus.ListenerCount(ExecutionStarted), "second unsubscribe must not remove another listener")

	bus.Publish(context.Background(), ExecutionStarted, ExecutionEvent{RequestID: 2})
	assert.Equal(t, 1, calls)

	other()
	assert.Equal(t, 0, bus.ListenerCount(ExecutionStarted))
}

func TestEventBus_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	var (
		gotKind  EventKind
		gotPanic any
	)
	bus := NewEventBus(func(_ context.Context, kind EventKind, recovered any) {
		gotKind = kind
		gotPanic = recovered
	})
	var after bool
	bus.Subscribe(ExecutionFailed, func(context.Context, ExecutionEvent) { panic("listener fault") })
	bus.Subscribe(ExecutionFailed, func(context.Context, ExecutionEvent) { after = true })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), ExecutionFailed, ExecutionEvent{})
	})
	assert.True(t, after, "remaining listeners still run")
	assert.Equal(t, ExecutionFailed, gotKind)
	assert.Equal(t, "listener fault", gotPanic)
}
