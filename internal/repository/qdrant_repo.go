package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Named vectors stored for every movie point, one per supported metric.
const (
	VectorNameEuclid = "euclid"
	VectorNameCosine = "cosine"
)

// pointNamespace seeds deterministic point ids derived from movie ids.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cinevibe:movies"))

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host       string
	Port       int
	Collection string
	APIKey     string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS     bool
}

func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository stores movie vectors in Qdrant and serves k-NN searches
// over them.
type QdrantRepository struct {
	conn           *grpc.ClientConn
	pointsClient   pb.PointsClient
	collectClient  pb.CollectionsClient
	collectionName string
}

// NewQdrantRepository creates a new QdrantRepository.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key).
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var opts []grpc.DialOption
	if cfg.UseTLS || cfg.APIKey != "" {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantRepository{
		conn:           conn,
		pointsClient:   pb.NewPointsClient(conn),
		collectClient:  pb.NewCollectionsClient(conn),
		collectionName: cfg.Collection,
	}, nil
}

// Close closes the gRPC connection
func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist and checks the
// vector size of an existing one.
func (r *QdrantRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok && size != uint64(vector.Dimensions) {
			return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, vector.Dimensions)
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig:  collectionVectors(),
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(100),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func collectionVectors() *pb.VectorsConfig {
	size := uint64(vector.Dimensions)
	return &pb.VectorsConfig{
		Config: &pb.VectorsConfig_ParamsMap{
			ParamsMap: &pb.VectorParamsMap{
				Map: map[string]*pb.VectorParams{
					VectorNameEuclid: {Size: size, Distance: pb.Distance_Euclid},
					VectorNameCosine: {Size: size, Distance: pb.Distance_Cosine},
				},
			},
		},
	}
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	vectors := info.GetConfig().GetParams().GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}
	if single := vectors.GetParams(); single != nil && single.GetSize() > 0 {
		return single.GetSize(), true
	}
	for _, params := range vectors.GetParamsMap().GetMap() {
		if size := params.GetSize(); size > 0 {
			return size, true
		}
	}
	return 0, false
}

// PointID returns the Qdrant point id for a movie id. The mapping is stable,
// so re-ingesting a movie overwrites its point.
func PointID(movieID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(movieID)).String()
}

// VectorName returns the named vector searched for metric.
func VectorName(metric vector.Metric) string {
	if metric == vector.MetricCosine {
		return VectorNameCosine
	}
	return VectorNameEuclid
}

// UpsertMovie stores the item vector of movie under both metrics.
func (r *QdrantRepository) UpsertMovie(ctx context.Context, movie domain.Movie, v vector.Vector) error {
	if err := vector.CheckVector(v); err != nil {
		return fmt.Errorf("movie %s: %w", movie.ID, err)
	}
	data := toFloat32(v)

	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(movie.ID)},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vectors{
				Vectors: &pb.NamedVectors{
					Vectors: map[string]*pb.Vector{
						VectorNameEuclid: {Data: data},
						VectorNameCosine: {Data: data},
					},
				},
			},
		},
		Payload: moviePayload(movie),
	}

	_, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func moviePayload(movie domain.Movie) map[string]*pb.Value {
	return map[string]*pb.Value{
		"movie_id":    {Kind: &pb.Value_StringValue{StringValue: movie.ID}},
		"title":       {Kind: &pb.Value_StringValue{StringValue: movie.Title}},
		"source_type": {Kind: &pb.Value_StringValue{StringValue: movie.SourceType}},
		"tags":        tagsToValue(movie.Tags),
	}
}

func tagsToValue(tags []string) *pb.Value {
	values := make([]*pb.Value, len(tags))
	for i, tag := range tags {
		values[i] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tag}}
	}
	return &pb.Value{
		Kind: &pb.Value_ListValue{
			ListValue: &pb.ListValue{Values: values},
		},
	}
}

// Search returns the limit nearest movies to v under metric. Scores are
// distances for the euclidean vector and similarities for the cosine one.
func (r *QdrantRepository) Search(ctx context.Context, v vector.Vector, limit int, metric vector.Metric) ([]domain.VectorHit, error) {
	name := VectorName(metric)
	resp, err := r.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         toFloat32(v),
		VectorName:     &name,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Include{
				Include: &pb.PayloadIncludeSelector{Fields: []string{"movie_id"}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return hitsFromScored(resp.GetResult()), nil
}

func hitsFromScored(scored []*pb.ScoredPoint) []domain.VectorHit {
	hits := make([]domain.VectorHit, 0, len(scored))
	for _, point := range scored {
		id := point.GetPayload()["movie_id"].GetStringValue()
		if id == "" {
			continue
		}
		hits = append(hits, domain.VectorHit{MovieID: id, Score: float64(point.GetScore())})
	}
	return hits
}

// Delete removes the point stored for movieID.
func (r *QdrantRepository) Delete(ctx context.Context, movieID string) error {
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(movieID)}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}

func toFloat32(v vector.Vector) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
