package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/Badar25/Journal-backend/internal/journal"
)

// Payload keys stored on every Qdrant point.
const (
	payloadEntryID   = "entryId"
	payloadOwnerID   = "userId"
	payloadTitle     = "title"
	payloadContent   = "content"
	payloadCreatedAt = "createdAt"
)

// entryNamespace seeds name-based point IDs for entry IDs that are not UUIDs.
var entryNamespace = uuid.MustParse("6f1d3c52-8a0e-4c57-9a55-3f0d2b1e7c41")

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name (default: journals).
	Collection string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantBackend implements Backend on a Qdrant collection using cosine
// distance. Entry fields live in the point payload.
type QdrantBackend struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this backend.
	cfg *QdrantConfig
}

// NewQdrantBackend creates a QdrantBackend. The collection is created or
// verified by Init.
func NewQdrantBackend(cfg *QdrantConfig) (*QdrantBackend, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Collection == "" {
		cfg.Collection = "journals"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantBackend{client: client, cfg: cfg}, nil
}

// Name implements Backend.
func (s *QdrantBackend) Name() string { return "qdrant" }

// Init creates the collection and its payload indexes if it does not exist,
// otherwise checks that its vector size equals dims.
func (s *QdrantBackend) Init(ctx context.Context, dims int) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.cfg.Collection)
		if err != nil {
			return fmt.Errorf("qdrant: failed to read collection %q: %w", s.cfg.Collection, err)
		}
		have := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if have != uint64(dims) {
			return fmt.Errorf("%w: collection %q has %d, want %d", ErrDimensionMismatch, s.cfg.Collection, have, dims)
		}
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	indexes := []struct {
		field string
		kind  qdrant.FieldType
	}{
		{payloadOwnerID, qdrant.FieldType_FieldTypeKeyword},
		{payloadCreatedAt, qdrant.FieldType_FieldTypeFloat},
	}
	for _, idx := range indexes {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.cfg.Collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      idx.field,
			FieldType:      idx.kind.Enum(),
		})
		if err != nil {
			return fmt.Errorf("qdrant: failed to index %q: %w", idx.field, err)
		}
	}
	return nil
}

// Put implements Backend. A single-point upsert is atomic in Qdrant.
func (s *QdrantBackend) Put(ctx context.Context, rec Record) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      pointID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadEntryID:   rec.ID,
				payloadOwnerID:   rec.OwnerID,
				payloadTitle:     rec.Title,
				payloadContent:   rec.Content,
				payloadCreatedAt: float64(rec.CreatedAt.Unix()),
			}),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert %s failed: %w", rec.ID, err)
	}
	return nil
}

// Get implements Backend.
func (s *QdrantBackend) Get(ctx context.Context, id string) (journal.Entry, bool, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.cfg.Collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return journal.Entry{}, false, fmt.Errorf("qdrant: get %s failed: %w", id, err)
	}
	if len(points) == 0 {
		return journal.Entry{}, false, nil
	}
	return entryFromPayload(points[0].GetId(), points[0].GetPayload()), true, nil
}

// List implements Backend.
func (s *QdrantBackend) List(ctx context.Context, owner string, rng *journal.TimeRange, limit int) ([]journal.Entry, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: s.cfg.Collection,
		Filter:         ownerFilter(owner, rng),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if limit > 0 {
		req.Limit = qdrant.PtrOf(uint32(limit))
	}
	points, err := s.client.Scroll(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: scroll failed: %w", err)
	}

	out := make([]journal.Entry, 0, len(points))
	for _, p := range points {
		out = append(out, entryFromPayload(p.GetId(), p.GetPayload()))
	}
	sortEntries(out)
	return out, nil
}

// Delete implements Backend.
func (s *QdrantBackend) Delete(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointID(id)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete %s failed: %w", id, err)
	}
	return nil
}

// DeleteByOwner implements Backend.
func (s *QdrantBackend) DeleteByOwner(ctx context.Context, owner string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(ownerFilter(owner, nil)),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete by owner failed: %w", err)
	}
	return nil
}

// DeleteCreatedBefore implements Backend. The count is taken before the
// delete, so entries written concurrently may make it approximate.
func (s *QdrantBackend) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	filter := &qdrant.Filter{Must: []*qdrant.Condition{
		qdrant.NewRange(payloadCreatedAt, &qdrant.Range{Lt: qdrant.PtrOf(float64(cutoff.Unix()))}),
	}}

	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count expired failed: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: delete expired failed: %w", err)
	}
	return int(n), nil
}

// maxSearchFetch caps how far Search widens its window to collect ties.
const maxSearchFetch = 1024

// Search performs an owner-filtered cosine similarity query. Qdrant does not
// order equal scores, so one extra point is fetched and the window doubles
// while the point at the limit ties with the last one fetched. Ties are then
// broken by ID locally.
func (s *QdrantBackend) Search(ctx context.Context, vector []float32, owner string, limit int) ([]Match, error) {
	fetch := limit + 1
	for {
		matches, err := s.query(ctx, vector, owner, fetch)
		if err != nil {
			return nil, err
		}
		if fetch >= maxSearchFetch || !tiesAtLimit(matches, limit, fetch) {
			return rankMatches(matches, limit), nil
		}
		fetch *= 2
	}
}

// query returns up to n matches in Qdrant's score order.
func (s *QdrantBackend) query(ctx context.Context, vector []float32, owner string, n int) ([]Match, error) {
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         ownerFilter(owner, nil),
		Limit:          qdrant.PtrOf(uint64(n)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Entry:      entryFromPayload(r.GetId(), r.GetPayload()),
			Similarity: r.GetScore(),
		})
	}
	return matches, nil
}

// tiesAtLimit reports whether a full window of fetched matches, in score
// order, ends on the same score as the match at position limit. Points with
// that score may then lie beyond the window.
func tiesAtLimit(matches []Match, limit, fetched int) bool {
	if limit <= 0 || len(matches) < fetched || len(matches) <= limit {
		return false
	}
	return matches[fetched-1].Similarity == matches[limit-1].Similarity
}

// Ping implements Backend using the Qdrant health check RPC.
func (s *QdrantBackend) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantBackend) Close() error {
	return s.client.Close()
}

// pointID maps an entry ID to a Qdrant point ID. UUIDs are used as is;
// anything else gets a stable name-based UUID.
func pointID(entryID string) *qdrant.PointId {
	if u, err := uuid.Parse(entryID); err == nil {
		return qdrant.NewIDUUID(u.String())
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(entryNamespace, []byte(entryID)).String())
}

// ownerFilter matches points owned by owner, optionally within rng.
func ownerFilter(owner string, rng *journal.TimeRange) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatch(payloadOwnerID, owner)}
	if rng != nil {
		must = append(must, qdrant.NewRange(payloadCreatedAt, &qdrant.Range{
			Gte: qdrant.PtrOf(float64(rng.Start.Unix())),
			Lte: qdrant.PtrOf(float64(rng.End.Unix())),
		}))
	}
	return &qdrant.Filter{Must: must}
}

// entryFromPayload rebuilds an Entry from a point. Points written before the
// entryId payload key existed fall back to the point UUID.
func entryFromPayload(id *qdrant.PointId, p map[string]*qdrant.Value) journal.Entry {
	e := journal.Entry{
		ID:      p[payloadEntryID].GetStringValue(),
		OwnerID: p[payloadOwnerID].GetStringValue(),
		Title:   p[payloadTitle].GetStringValue(),
		Content: p[payloadContent].GetStringValue(),
	}
	if e.ID == "" {
		e.ID = id.GetUuid()
	}
	if v, ok := p[payloadCreatedAt]; ok {
		ts := v.GetDoubleValue()
		if ts == 0 {
			ts = float64(v.GetIntegerValue())
		}
		e.CreatedAt = time.Unix(int64(math.Round(ts)), 0).UTC()
	}
	return e
}
