package database

import (
	"fmt"
	"strings"
	"time"
)

// CommandKind tells the driver how to interpret Command.Text.
type CommandKind int

const (
	// CommandStoredProcedure treats Text as the name of a callable procedure.
	// It is the zero value, matching the most common call shape.
	CommandStoredProcedure CommandKind = iota

	// CommandText treats Text as an ad-hoc SQL statement.
	CommandText
)

func (k CommandKind) String() string {
	switch k {
	case CommandStoredProcedure:
		return "stored_procedure"
	case CommandText:
		return "text"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// ApplicationIntent is the read-intent hint appended to the connection string.
type ApplicationIntent int

const (
	// IntentUnspecified leaves the connection string untouched.
	IntentUnspecified ApplicationIntent = iota

	// IntentReadWrite routes to the primary.
	IntentReadWrite

	// IntentReadOnly routes to a read-optimized replica where the driver supports it.
	IntentReadOnly
)

const applicationIntentKey = "applicationintent="

func (i ApplicationIntent) String() string {
	switch i {
	case IntentReadWrite:
		return "ReadWrite"
	case IntentReadOnly:
		return "ReadOnly"
	default:
		return ""
	}
}

// ParseApplicationIntent is the inverse of ApplicationIntent.String, case-insensitive.
func ParseApplicationIntent(s string) ApplicationIntent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "readwrite":
		return IntentReadWrite
	case "readonly":
		return IntentReadOnly
	default:
		return IntentUnspecified
	}
}

// Command describes one execution against a backend.
type Command struct {
	// Text is the procedure name or SQL statement. Required.
	Text string

	// Kind defaults to CommandStoredProcedure.
	Kind CommandKind

	// Params are bound positionally. sql.NamedArg values are bound by name
	// where the driver supports it.
	Params []any

	// Timeout overrides the backend's resolved command timeout when > 0.
	Timeout time.Duration

	// ApplicationIntent appends a read-intent qualifier to the connection string.
	ApplicationIntent ApplicationIntent
}

// Procedure is shorthand for a stored-procedure command.
func Procedure(name string, params ...any) Command {
	return Command{Text: name, Kind: CommandStoredProcedure, Params: params}
}

// Text is shorthand for an ad-hoc SQL command.
func Text(sql string, params ...any) Command {
	return Command{Text: sql, Kind: CommandText, Params: params}
}

func (c Command) validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%w: command text must not be blank", ErrInvalidArgument)
	}
	return nil
}

// QualifyConnectionString appends the read-intent qualifier to base:
// "<base>;applicationintent=<intent>", without doubling a trailing ';'.
// IntentUnspecified returns base unchanged.
func QualifyConnectionString(base string, intent ApplicationIntent) string {
	if intent == IntentUnspecified {
		return base
	}
	sep := ";"
	if strings.HasSuffix(base, ";") {
		sep = ""
	}
	return base + sep + applicationIntentKey + intent.String()
}

// SplitApplicationIntent undoes QualifyConnectionString. Drivers call it to
// recover the native DSN and translate the intent into their own parameters.
//
// Only a trailing ";applicationintent=<ReadWrite|ReadOnly>" segment is a
// qualifier; anything else, including the key inside a password, is left in
// the connection string.
func SplitApplicationIntent(connectionString string) (string, ApplicationIntent) {
	idx := strings.LastIndex(strings.ToLower(connectionString), ";"+applicationIntentKey)
	if idx < 0 {
		return connectionString, IntentUnspecified
	}
	intent := ParseApplicationIntent(connectionString[idx+1+len(applicationIntentKey):])
	if intent == IntentUnspecified {
		return connectionString, IntentUnspecified
	}
	return connectionString[:idx], intent
}
