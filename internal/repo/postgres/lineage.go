package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/lineageevent"
	"github.com/ChenBoya-prj/gem5-skylake-config/internal/repo"
)

// LineageStore appends lineage edges as lineage_events rows.
type LineageStore struct {
	db       DB
	actor    string
	launchID string
}

func NewLineageStore(db DB, actor, launchID string) *LineageStore {
	if db == nil {
		return nil
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "gem5art"
	}
	return &LineageStore{db: db, actor: actor, launchID: strings.TrimSpace(launchID)}
}

func (s *LineageStore) RecordEdge(ctx context.Context, edge repo.LineageEdge) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("lineage store not initialized")
	}
	_, err := lineageevent.Insert(ctx, s.db, lineageevent.Event{
		Actor:       s.actor,
		LaunchID:    s.launchID,
		SubjectType: edge.SubjectType,
		SubjectID:   edge.SubjectID,
		Predicate:   edge.Predicate,
		ObjectType:  edge.ObjectType,
		ObjectID:    edge.ObjectID,
		Metadata:    edge.Metadata,
	})
	return err
}
