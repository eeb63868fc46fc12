// Package transfer provides bulk import, legacy migration and
// collection merge over the collection access layer. None of these
// operations are atomic across collections: a failure partway leaves the
// records already written in place.
package transfer

import (
	"context"
	"encoding/json"
	"io"
	"os"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/store"
)

// Service runs import, export and merge operations against an opened
// store.
type Service struct {
	store      *store.Store
	legacyPath string
}

// New creates the transfer service. legacyPath points at the degraded
// flat key-value file scanned by ImportLegacy.
func New(s *store.Store, legacyPath string) *Service {
	return &Service{store: s, legacyPath: legacyPath}
}

// ImportJSON loads a snapshot: a JSON object keyed by collection name
// with array values. Records missing their identifier field are skipped;
// unrecognized collections are skipped whole. A payload that is not a
// JSON object fails before any write. Writes are per-record; a failure
// midway leaves earlier writes committed.
func (s *Service) ImportJSON(ctx context.Context, r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return apperr.Wrap(apperr.ErrImportFailed, "reading import payload", err)
	}

	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return apperr.Wrap(apperr.ErrImportFailed,
			"import payload must be a JSON object keyed by collection name", err)
	}
	// A top-level null unmarshals into a nil map without error.
	if snapshot == nil {
		return apperr.New(apperr.ErrImportFailed,
			"import payload must be a JSON object keyed by collection name")
	}

	imported, skipped := 0, 0
	for name, raw := range snapshot {
		if !store.IsCollection(name) {
			logging.Debug("skipping unrecognized collection in import", map[string]any{"collection": name})
			skipped++
			continue
		}

		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return apperr.Wrap(apperr.ErrImportFailed,
				"collection "+name+" must hold an array of records", err)
		}

		for _, record := range records {
			if _, err := store.RecordID(name, record); err != nil {
				logging.Debug("skipping record without identifier", map[string]any{"collection": name})
				skipped++
				continue
			}
			if _, err := s.store.Put(ctx, name, record); err != nil {
				return apperr.Wrap(apperr.ErrImportFailed, "importing into collection "+name, err)
			}
			imported++
		}
	}

	logging.Info("import completed", map[string]any{"imported": imported, "skipped": skipped})
	return nil
}

// ImportLegacy migrates records written by degraded mode into the
// structured store: it scans the flat key-value file for every
// recognized collection prefix and upserts whatever it finds. A missing
// legacy file means there is nothing to migrate.
func (s *Service) ImportLegacy(ctx context.Context) error {
	if _, err := os.Stat(s.legacyPath); os.IsNotExist(err) {
		logging.Debug("no legacy store to migrate", map[string]any{"path": s.legacyPath})
		return nil
	}

	legacy, err := store.OpenFallback(s.legacyPath)
	if err != nil {
		return apperr.Wrap(apperr.ErrImportFailed, "opening legacy store", err)
	}
	defer legacy.Close()

	imported := 0
	for _, spec := range store.Collections() {
		records, err := legacy.GetAll(ctx, spec.Name)
		if err != nil {
			return apperr.Wrap(apperr.ErrImportFailed, "scanning legacy collection "+spec.Name, err)
		}
		for _, record := range records {
			if _, err := s.store.Put(ctx, spec.Name, record); err != nil {
				return apperr.Wrap(apperr.ErrImportFailed, "migrating into collection "+spec.Name, err)
			}
			imported++
		}
	}

	logging.Info("legacy migration completed", map[string]any{"imported": imported})
	return nil
}

// MergeCollections copies every source record whose identifier is not
// already present in target (string-compared) into target. Existing
// target records are never overwritten. Returns the number of records
// merged.
func (s *Service) MergeCollections(ctx context.Context, source, target string) (int, error) {
	if source == target {
		return 0, apperr.New(apperr.ErrValidation, "source and target collections must differ")
	}
	if !store.IsCollection(source) {
		return 0, apperr.Newf(apperr.ErrUnknownCollection, "unknown collection %q", source)
	}
	if !store.IsCollection(target) {
		return 0, apperr.Newf(apperr.ErrUnknownCollection, "unknown collection %q", target)
	}

	targetRecords, err := s.store.GetAll(ctx, target)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrMergeFailed, "reading target collection", err)
	}
	existing := make(map[string]struct{}, len(targetRecords))
	for _, record := range targetRecords {
		id, err := store.RecordID(target, record)
		if err != nil {
			// A stored record always has its identifier; anything else
			// is corruption worth failing on.
			return 0, apperr.Wrap(apperr.ErrMergeFailed, "reading target record identifier", err)
		}
		existing[id] = struct{}{}
	}

	sourceRecords, err := s.store.GetAll(ctx, source)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrMergeFailed, "reading source collection", err)
	}

	merged := 0
	for _, record := range sourceRecords {
		id, err := store.RecordID(source, record)
		if err != nil {
			return merged, apperr.Wrap(apperr.ErrMergeFailed, "reading source record identifier", err)
		}
		if _, ok := existing[id]; ok {
			continue
		}
		if _, err := s.store.Put(ctx, target, record); err != nil {
			return merged, apperr.Wrap(apperr.ErrMergeFailed, "writing into target collection", err)
		}
		merged++
	}

	logging.Info("collections merged",
		map[string]any{"source": source, "target": target, "merged": merged})
	return merged, nil
}
