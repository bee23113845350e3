package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/localstore"
	"github.com/SAP-F-2025/survey-service/internal/models"
)

const (
	// IndexKey holds the list of sessions stored on this device.
	IndexKey = "survey-sessions"
	// SnapshotPrefix prefixes the per-respondent snapshot keys.
	SnapshotPrefix = "respondent-"
)

func SnapshotKey(uuid string) string {
	return SnapshotPrefix + uuid
}

// Snapshot is the full serialized state of one session.
type Snapshot struct {
	Respondent Respondent              `json:"respondent"`
	Responses  []models.StoredResponse `json:"responses"`
}

// IndexEntry summarises a stored session without its responses.
type IndexEntry struct {
	UUID         string    `json:"uuid"`
	SurveySlug   string    `json:"survey"`
	TS           time.Time `json:"ts"`
	Complete     bool      `json:"complete"`
	Status       string    `json:"status,omitempty"`
	LastQuestion string    `json:"last_question,omitempty"`
	Answered     int       `json:"answered"`
}

// Index is the top-level document. The in-progress respondent is only
// referenced by id; its data lives under its snapshot key.
type Index struct {
	Sessions []IndexEntry `json:"sessions"`
	Resume   string       `json:"resume,omitempty"`
}

// OfflineStore reads and writes session snapshots in local storage.
type OfflineStore struct {
	storage localstore.Storage
}

func NewOfflineStore(storage localstore.Storage) *OfflineStore {
	return &OfflineStore{storage: storage}
}

// Write stores the session snapshot and then rewrites the index.
func (o *OfflineStore) Write(ctx context.Context, s *Session) error {
	snap := Snapshot{Respondent: s.Respondent, Responses: s.Responses}
	if snap.Responses == nil {
		snap.Responses = []models.StoredResponse{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := o.storage.SetItem(ctx, SnapshotKey(s.Respondent.UUID), string(data)); err != nil {
		return err
	}

	idx, err := o.Index(ctx)
	if err != nil {
		return err
	}
	entry := IndexEntry{
		UUID:         s.Respondent.UUID,
		SurveySlug:   s.Respondent.SurveySlug,
		TS:           s.Respondent.TS,
		Complete:     s.Respondent.Complete,
		Status:       s.Respondent.Status,
		LastQuestion: s.Respondent.LastQuestion,
		Answered:     len(s.Responses),
	}
	idx.upsert(entry)
	if s.Respondent.Complete {
		if idx.Resume == entry.UUID {
			idx.Resume = ""
		}
	} else {
		idx.Resume = entry.UUID
	}
	return o.writeIndex(ctx, idx)
}

func (idx *Index) upsert(e IndexEntry) {
	for i := range idx.Sessions {
		if idx.Sessions[i].UUID == e.UUID {
			idx.Sessions[i] = e
			return
		}
	}
	idx.Sessions = append(idx.Sessions, e)
}

// Index returns the stored index, or an empty one.
func (o *OfflineStore) Index(ctx context.Context) (*Index, error) {
	raw, err := o.storage.GetItem(ctx, IndexKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return &Index{}, nil
	}
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &idx, nil
}

func (o *OfflineStore) writeIndex(ctx context.Context, idx *Index) error {
	if idx.Sessions == nil {
		idx.Sessions = []IndexEntry{}
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return o.storage.SetItem(ctx, IndexKey, string(data))
}

// Load reads one session snapshot.
func (o *OfflineStore) Load(ctx context.Context, uuid string) (*Snapshot, error) {
	raw, err := o.storage.GetItem(ctx, SnapshotKey(uuid))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", uuid, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", uuid, err)
	}
	return &snap, nil
}

// Pending lists completed sessions waiting to be uploaded.
func (o *OfflineStore) Pending(ctx context.Context) ([]IndexEntry, error) {
	idx, err := o.Index(ctx)
	if err != nil {
		return nil, err
	}
	var out []IndexEntry
	for _, e := range idx.Sessions {
		if e.Complete {
			out = append(out, e)
		}
	}
	return out, nil
}

// Remove deletes a session's snapshot and index entry.
func (o *OfflineStore) Remove(ctx context.Context, uuid string) error {
	if err := o.storage.RemoveItem(ctx, SnapshotKey(uuid)); err != nil {
		return err
	}
	idx, err := o.Index(ctx)
	if err != nil {
		return err
	}
	kept := idx.Sessions[:0]
	for _, e := range idx.Sessions {
		if e.UUID != uuid {
			kept = append(kept, e)
		}
	}
	idx.Sessions = kept
	if idx.Resume == uuid {
		idx.Resume = ""
	}
	return o.writeIndex(ctx, idx)
}

// SyncRequest builds the upload payload for a stored session.
func (snap *Snapshot) SyncRequest() *models.SyncRequest {
	return &models.SyncRequest{
		Respondent: models.SyncRespondent{
			UUID:         snap.Respondent.UUID,
			TS:           snap.Respondent.TS,
			Complete:     snap.Respondent.Complete,
			Status:       snap.Respondent.Status,
			LastQuestion: snap.Respondent.LastQuestion,
			Surveyor:     snap.Respondent.Surveyor,
			TestData:     snap.Respondent.TestData,
		},
		Responses: snap.Responses,
	}
}
