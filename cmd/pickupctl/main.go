// cmd/pickupctl/main.go
//
// pickupctl calls the server's callable functions from a terminal:
//
//	pickupctl --url http://localhost:8080 --token $TOKEN acceptPickup '{"pickupId":"..."}'
//	pickupctl --token $TOKEN createPickup --data-file pickup.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/client"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(args []string, stdout io.Writer) error {
	var baseURL, token, dataFile string
	var timeout time.Duration

	flagSet := pflag.NewFlagSet("pickupctl", pflag.ContinueOnError)
	flagSet.StringVar(&baseURL, "url", envOr("PICKUP_API_URL", "http://localhost:8080"), "API server base URL")
	flagSet.StringVar(&token, "token", os.Getenv("PICKUP_API_TOKEN"), "bearer token")
	flagSet.StringVar(&dataFile, "data-file", "", "read the JSON payload from this file (- for stdin)")
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: pickupctl [flags] <function> [json payload]")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 || len(rest) > 2 {
		flagSet.Usage()
		return errors.New("expected a function name and an optional payload")
	}
	payload, err := readPayload(rest[1:], dataFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var result json.RawMessage
	if err := client.NewFunctionsClient(baseURL, token).Call(ctx, rest[0], payload, &result); err != nil {
		return err
	}
	return printJSON(stdout, result)
}

func readPayload(args []string, dataFile string) (json.RawMessage, error) {
	var raw []byte
	var err error
	switch {
	case len(args) == 1 && dataFile != "":
		return nil, errors.New("give the payload inline or with --data-file, not both")
	case len(args) == 1:
		raw = []byte(args[0])
	case dataFile == "-":
		raw, err = io.ReadAll(os.Stdin)
	case dataFile != "":
		raw, err = os.ReadFile(dataFile)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if !json.Valid(raw) {
		return nil, errors.New("payload is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// exitCode gives scripts a distinct status per failure class.
func exitCode(err error) int {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return 1
	}
	switch appErr.Code {
	case apperr.CodeInvalidArgument:
		return 2
	case apperr.CodeUnauthenticated, apperr.CodePermissionDenied:
		return 3
	case apperr.CodeNotFound:
		return 4
	case apperr.CodeFailedPrecondition:
		return 5
	case apperr.CodeUnavailable:
		return 6
	default:
		return 1
	}
}
