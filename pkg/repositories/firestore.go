package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/cbodonnell/angelreaper/pkg/game/types"
	"github.com/cbodonnell/angelreaper/pkg/repositories/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	_ Repository = &FirestoreRepository{}
	_ Updater    = &FirestoreRepository{}
)

const matchesCollection = "matches"

// Updater is implemented by repositories that run a read-modify-write in a
// native transaction. fn may be invoked more than once.
type Updater interface {
	UpdateMatch(ctx context.Context, matchID string, fn func(m *models.Match) (*types.MatchState, error)) (*models.Match, error)
}

type FirestoreRepository struct {
	client *firestore.Client
}

type firestoreMatch struct {
	State          string    `firestore:"state"`
	Version        int64     `firestore:"version"`
	Phase          string    `firestore:"phase"`
	IdleSince time.Time `firestore:"idleSince"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewFirestoreRepository opens a Firestore client from an existing Firebase app.
// The caller is responsible for calling Close() on the repository.
func NewFirestoreRepository(ctx context.Context, app *firebase.App) (*FirestoreRepository, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %v", err)
	}

	return &FirestoreRepository{
		client: client,
	}, nil
}

func (r *FirestoreRepository) Close(ctx context.Context) error {
	return r.client.Close()
}

func (r *FirestoreRepository) doc(matchID string) *firestore.DocumentRef {
	return r.client.Collection(matchesCollection).Doc(matchID)
}

func newFirestoreMatch(state *types.MatchState, version int64, createdAt time.Time) (*firestoreMatch, error) {
	b, err := encodeState(state)
	if err != nil {
		return nil, err
	}
	return &firestoreMatch{
		State:     string(b),
		Version:   version,
		Phase:     string(state.Phase),
		IdleSince: state.IdleSince(),
		CreatedAt: createdAt,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (f *firestoreMatch) toModel(matchID string) (*models.Match, error) {
	state, err := decodeState([]byte(f.State))
	if err != nil {
		return nil, err
	}
	return &models.Match{
		ID:        matchID,
		State:     state,
		Version:   f.Version,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}, nil
}

func (r *FirestoreRepository) CreateMatch(ctx context.Context, matchID string, state *types.MatchState) (*models.Match, error) {
	rec, err := newFirestoreMatch(state, 1, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if _, err := r.doc(matchID).Create(ctx, rec); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, &ErrAlreadyExists{}
		}
		return nil, fmt.Errorf("failed to create match: %v", err)
	}
	return rec.toModel(matchID)
}

func (r *FirestoreRepository) LoadMatch(ctx context.Context, matchID string) (*models.Match, error) {
	snap, err := r.doc(matchID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to get match: %v", err)
	}
	rec := &firestoreMatch{}
	if err := snap.DataTo(rec); err != nil {
		return nil, fmt.Errorf("failed to decode match: %v", err)
	}
	return rec.toModel(matchID)
}

func (r *FirestoreRepository) SaveMatch(ctx context.Context, matchID string, state *types.MatchState, expectedVersion int64) (*models.Match, error) {
	return r.UpdateMatch(ctx, matchID, func(m *models.Match) (*types.MatchState, error) {
		if m.Version != expectedVersion {
			return nil, &ErrConflict{Expected: expectedVersion, Actual: m.Version}
		}
		return state, nil
	})
}

// UpdateMatch reads the match, calls fn and writes its result inside one
// Firestore transaction. Firestore retries fn when the document changes underneath it.
func (r *FirestoreRepository) UpdateMatch(ctx context.Context, matchID string, fn func(m *models.Match) (*types.MatchState, error)) (*models.Match, error) {
	var saved *models.Match
	ref := r.doc(matchID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return &ErrNotFound{}
			}
			return fmt.Errorf("failed to get match: %v", err)
		}
		current := &firestoreMatch{}
		if err := snap.DataTo(current); err != nil {
			return fmt.Errorf("failed to decode match: %v", err)
		}
		m, err := current.toModel(matchID)
		if err != nil {
			return err
		}

		next, err := fn(m)
		if err != nil {
			return err
		}
		rec, err := newFirestoreMatch(next, current.Version+1, current.CreatedAt)
		if err != nil {
			return err
		}
		if err := tx.Set(ref, rec); err != nil {
			return fmt.Errorf("failed to set match: %v", err)
		}
		saved, err = rec.toModel(matchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *FirestoreRepository) ListIdleMatches(ctx context.Context, before time.Time) ([]*models.Match, error) {
	iter := r.client.Collection(matchesCollection).
		Where("idleSince", "<", before).
		OrderBy("idleSince", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	matches := []*models.Match{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate matches: %v", err)
		}
		rec := &firestoreMatch{}
		if err := snap.DataTo(rec); err != nil {
			return nil, fmt.Errorf("failed to decode match: %v", err)
		}
		// filtered here to avoid a composite index on phase
		if rec.Phase == string(types.PhaseGameOver) {
			continue
		}
		m, err := rec.toModel(snap.Ref.ID)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *FirestoreRepository) DeleteMatch(ctx context.Context, matchID string) error {
	if _, err := r.doc(matchID).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return &ErrNotFound{}
		}
		return fmt.Errorf("failed to delete match: %v", err)
	}
	return nil
}
