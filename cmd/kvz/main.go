// kvz is the one-shot command line client: put a value from a file or
// stdin, or get a value to a file or stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kvz-io/kvz/internal/client"
	"github.com/kvz-io/kvz/internal/observability"
	"github.com/kvz-io/kvz/internal/protocol"
)

const defaultEndpoint = "tcp://localhost:5555"

var logger zerolog.Logger

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  kvz put -key KEY [-ts N] [-connect EP] [-file PATH]
  kvz get -key KEY [-connect EP] [-out PATH]

put reads the payload from -file or stdin; -ts defaults to the current
time in milliseconds. get writes the payload to -out or stdout.
`)
	os.Exit(2)
}

func main() {
	logger = observability.InitLogger("kvz")

	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "put":
		err = runPut(os.Args[2:])
	case "get":
		err = runGet(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}

func dial(endpoint string) (*client.Session, error) {
	return client.Dial(context.Background(), endpoint, client.Config{}, logger)
}

func runPut(args []string) error {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	connect := fs.String("connect", defaultEndpoint, "endpoint to connect to")
	key := fs.String("key", "", "key (UTF-8)")
	ts := fs.Uint64("ts", 0, "timestamp (u64); 0 means current unix millis")
	file := fs.String("file", "", "read payload from file instead of stdin")
	_ = fs.Parse(args)

	if *key == "" {
		return fmt.Errorf("-key is required")
	}
	if *ts == 0 {
		*ts = uint64(time.Now().UnixMilli())
	}

	payload, err := readPayload(*file)
	if err != nil {
		return err
	}

	sess, err := dial(*connect)
	if err != nil {
		return err
	}
	defer sess.Close()

	out, err := sess.Put(*key, *ts, payload)
	if err != nil {
		return err
	}
	switch out {
	case protocol.PutAccepted:
		fmt.Fprintf(os.Stderr, "PUT OK (%d bytes)\n", len(payload))
	case protocol.PutStale:
		fmt.Fprintln(os.Stderr, "PUT STALE (newer value already present)")
	}
	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	connect := fs.String("connect", defaultEndpoint, "endpoint to connect to")
	key := fs.String("key", "", "key (UTF-8)")
	out := fs.String("out", "", "write payload to file instead of stdout")
	_ = fs.Parse(args)

	if *key == "" {
		return fmt.Errorf("-key is required")
	}

	sess, err := dial(*connect)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, found, err := sess.Get(*key)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(os.Stderr, "GET MISS")
		return nil
	}

	fmt.Fprintf(os.Stderr, "GET OK: ts=%d size=%d bytes\n", rec.Timestamp, len(rec.Payload))
	if *out != "" {
		return os.WriteFile(*out, rec.Payload, 0o644)
	}
	if _, err := os.Stdout.Write(rec.Payload); err != nil {
		return err
	}
	return nil
}

func readPayload(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}
