package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// WarmLocationsTask resolves freshly ingested places so heatmap requests find
// them in the coordinate cache. Places that stay unresolved are retried.
type WarmLocationsTask struct {
	Task
	Locations []string
	resolver  LocationResolver
}

func NewWarmLocationsTask(locations []string, resolver LocationResolver) *WarmLocationsTask {
	return &WarmLocationsTask{
		Task:      NewTask(TaskTypeWarmLocations, strings.Join(locations, ", ")),
		Locations: append([]string(nil), locations...),
		resolver:  resolver,
	}
}

func (t *WarmLocationsTask) Execute(ctx context.Context) error {
	var unresolved []string
	hits := 0

	for _, location := range t.Locations {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res := t.resolver.Resolve(ctx, location)
		switch {
		case res.Coordinates == nil:
			unresolved = append(unresolved, location)
		case res.Cached:
			hits++
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"locations", len(t.Locations),
		"cache_hits", hits,
		"unresolved", len(unresolved),
		"duration", t.GetDuration())

	if len(unresolved) > 0 {
		t.Locations = unresolved
		t.Subject = strings.Join(unresolved, ", ")
		return fmt.Errorf("%d locations unresolved", len(unresolved))
	}

	return nil
}
