package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ConsoleExporter prints the raw record and its OTel envelope for local
// diagnostics. The "record"/"envelope" labels are dimmed when stdout is a
// TTY and plain otherwise,
// so piping to a file or log collector doesn't carry ANSI codes (§4.7).
type ConsoleExporter struct {
	serviceVersion string
	environment    string
	isTTY          bool
}

func NewConsoleExporter(serviceVersion, environment string) *ConsoleExporter {
	return &ConsoleExporter{
		serviceVersion: serviceVersion,
		environment:    environment,
		isTTY:          term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (c *ConsoleExporter) Name() string { return "console" }

func (c *ConsoleExporter) Export(_ context.Context, metrics RequestMetrics) error {
	envelope := metrics.ToOTelLog(c.serviceVersion, c.environment)

	recordJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal telemetry record: %w", err)
	}
	envelopeJSON, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal otel envelope: %w", err)
	}

	if c.isTTY {
		fmt.Printf("\033[2mrecord\033[0m   %s\n\033[2menvelope\033[0m %s\n", recordJSON, envelopeJSON)
		return nil
	}
	fmt.Printf("record   %s\nenvelope %s\n", recordJSON, envelopeJSON)
	return nil
}
