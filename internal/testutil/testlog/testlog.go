// Package testlog routes zerolog output through the test log so it shows
// up only for failing or verbose runs.
package testlog

import (
	"testing"

	"github.com/rs/zerolog"
)

func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
}
