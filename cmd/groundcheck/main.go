// Command groundcheck verifies numeric claims against time series data from
// a JSON file (or stdin) and prints the evidence for each claim.
//
// Input format:
//
//	{
//	  "series": [
//	    {"series_id": "revenue", "frequency": "Q", "points": [
//	      {"date": "2024-03-30", "value": 100}
//	    ]}
//	  ],
//	  "claims": [
//	    {"id": "c1", "metric": "revenue", "operator": ">", "value": 90}
//	  ]
//	}
//
// Exit code is 0 when every claim is supported, 1 when any claim is
// unsupported, 2 on bad input.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"finsight/internal/grounding"
	"finsight/pkg/contracts"
	"finsight/pkg/contracts/domain"
)

type inputFile struct {
	Series []inputSeries `json:"series"`
	Claims []inputClaim  `json:"claims"`
}

type inputClaim struct {
	ID       string  `json:"id"`
	Metric   string  `json:"metric"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
	At       string  `json:"at,omitempty"`
	Window   *int    `json:"window,omitempty"`
}

type inputSeries struct {
	SeriesID  string       `json:"series_id"`
	Frequency string       `json:"frequency"`
	Points    []inputPoint `json:"points"`
}

type inputPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func main() {
	input := flag.String("input", "-", "input JSON file, - for stdin")
	compact := flag.Bool("compact", false, "print evidence as one JSON object per line")
	verbose := flag.Bool("v", false, "enable debug logging")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetVersionString())
		return
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	data, err := readInput(*input)
	if err != nil {
		logger.Error("failed to read input", "path", *input, "error", err)
		os.Exit(2)
	}

	var in inputFile
	if err := json.Unmarshal(data, &in); err != nil {
		logger.Error("failed to parse input", "error", err)
		os.Exit(2)
	}

	series, err := buildSeries(in.Series)
	if err != nil {
		logger.Error("invalid series", "error", err)
		os.Exit(2)
	}

	claims, err := buildClaims(in.Claims)
	if err != nil {
		logger.Error("invalid claims", "error", err)
		os.Exit(2)
	}

	verifier := grounding.NewVerifier(logger)
	evidence, allSupported := verifier.GroundClaims(context.Background(), claims, series)

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	for _, ev := range evidence {
		if err := enc.Encode(ev); err != nil {
			logger.Error("failed to write evidence", "error", err)
			os.Exit(2)
		}
	}

	if !allSupported {
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func buildClaims(in []inputClaim) ([]domain.NumericClaim, error) {
	out := make([]domain.NumericClaim, 0, len(in))
	for _, c := range in {
		claim := domain.NumericClaim{
			ID:       c.ID,
			Metric:   c.Metric,
			Operator: domain.Operator(c.Operator),
			Value:    c.Value,
			Window:   c.Window,
		}
		if c.At != "" {
			at, err := time.Parse("2006-01-02", c.At)
			if err != nil {
				return nil, fmt.Errorf("claim %s: bad date %q: %w", c.ID, c.At, err)
			}
			claim.At = &at
		}
		out = append(out, claim)
	}
	return out, nil
}

func buildSeries(in []inputSeries) ([]domain.TimeSeries, error) {
	out := make([]domain.TimeSeries, 0, len(in))
	for _, s := range in {
		ts := domain.TimeSeries{
			SeriesID:  s.SeriesID,
			Frequency: domain.Frequency(s.Frequency),
			Points:    make([]domain.Point, 0, len(s.Points)),
		}
		for _, p := range s.Points {
			date, err := time.Parse("2006-01-02", p.Date)
			if err != nil {
				return nil, fmt.Errorf("series %s: bad date %q: %w", s.SeriesID, p.Date, err)
			}
			ts.Points = append(ts.Points, domain.Point{Date: date, Value: p.Value})
		}
		if err := ts.Validate(); err != nil {
			return nil, fmt.Errorf("series %s: %w", s.SeriesID, err)
		}
		out = append(out, ts)
	}
	return out, nil
}
