package io

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/orrery/pkg/graph"
)

// Sink receives a finished layout.
type Sink interface {
	Write(ctx context.Context, l graph.Layout) error
	Close(ctx context.Context) error
}

// FileSink writes positions as JSON lines to Path and, when SummaryPath is
// set, the layout summary to SummaryPath.
type FileSink struct {
	Path        string
	SummaryPath string
}

func (s FileSink) Write(_ context.Context, l graph.Layout) error {
	if err := graph.WritePositionsFile(s.Path, l.Positions); err != nil {
		return err
	}
	if s.SummaryPath != "" {
		return ExportJSON(l, s.SummaryPath)
	}
	return nil
}

func (FileSink) Close(context.Context) error { return nil }

// Multi writes to every sink in order and stops at the first failure.
func Multi(sinks ...Sink) Sink { return multiSink(sinks) }

type multiSink []Sink

func (m multiSink) Write(ctx context.Context, l graph.Layout) error {
	for _, s := range m {
		if err := s.Write(ctx, l); err != nil {
			return fmt.Errorf("%T: %w", s, err)
		}
	}
	return nil
}

func (m multiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close(ctx))
	}
	return errors.Join(errs...)
}
