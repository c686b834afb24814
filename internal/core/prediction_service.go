package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"price_service/internal/domain/model"
)

// maeWarnThreshold is the validation mean absolute error, in pounds,
// above which a model is logged as noisy. The prediction is still
// returned.
const maeWarnThreshold = 10000

// trainingColumns is the feature column order of the design matrix.
var trainingColumns = []string{"property_type", "latitude", "longitude", "distance_to_shop"}

// PriceStore provides the joined price/coordinate rows for a spatial
// query.
type PriceStore interface {
	Fetch(ctx context.Context, q model.SpatialQuery) ([]model.PriceRecord, error)
}

// PipelineConfig carries the tunable parts of a prediction run.
type PipelineConfig struct {
	// TestSize is the held-out validation fraction, e.g. 0.2.
	TestSize float64
	// TrainingBBox is the bounding box half-width in degrees.
	TrainingBBox float64
	Regression   RegressionConfig
	// Seed fixes the train/validation split; 0 means time-seeded.
	Seed int64
}

// TrainingFrame is the feature-encoded view of a fetched record set:
// price as the target, the remaining columns as features. It lives for
// one prediction run.
type TrainingFrame struct {
	Columns  []string
	X        [][]float64
	Y        []float64
	Encoding CategoryEncoding
}

// PredictionService composes the record store, the POI source, the
// schema and the encoder into the training and prediction workflow.
// Every call fetches and fits from scratch; no state survives a call.
type PredictionService struct {
	store    PriceStore
	enricher *ProximityEnricher
	schema   Schema
	cfg      PipelineConfig
	rng      *rand.Rand
	logger   zerolog.Logger
}

func NewPredictionService(store PriceStore, pois POISource, schema Schema, cfg PipelineConfig, logger zerolog.Logger) *PredictionService {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PredictionService{
		store:    store,
		enricher: NewProximityEnricher(pois, logger),
		schema:   schema,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger,
	}
}

func shopFilter() model.POIFilter {
	return model.POIFilter{Tag: "shop"}
}

// PredictPrice estimates the sale price of a property at the given
// location, of the given type, around the given date. It fetches the
// surrounding transactions, validates and enriches them, fits a
// regularized least-squares model and returns its point estimate for
// the query. Any failure before the fit aborts the call.
func (s *PredictionService) PredictPrice(ctx context.Context, latitude, longitude float64, date time.Time, propertyType string) (float64, error) {
	frame, err := s.trainingData(ctx, latitude, longitude, date)
	if err != nil {
		return 0, err
	}

	trainIdx, validationIdx := s.split(len(frame.Y))
	trainX, trainY := frame.partition(trainIdx)

	trained, err := FitElasticNet(trainX, trainY, frame.Columns, s.cfg.Regression)
	if err != nil {
		return 0, fmt.Errorf("failed to fit model: %w", err)
	}

	if len(validationIdx) > 0 {
		validationX, validationY := frame.partition(validationIdx)
		if mae := trained.MeanAbsoluteError(validationX, validationY); mae > maeWarnThreshold {
			s.logger.Warn().
				Float64("mae", mae).
				Int("validation_rows", len(validationIdx)).
				Msg("high mean absolute error on validation data")
		}
	}

	return s.makePrediction(ctx, trained, frame.Encoding, latitude, longitude, propertyType)
}

// trainingData runs the fetch, validate, enrich and encode phases and
// assembles the training frame.
func (s *PredictionService) trainingData(ctx context.Context, latitude, longitude float64, date time.Time) (*TrainingFrame, error) {
	query := TrainingWindow(latitude, longitude, date, s.cfg.TrainingBBox)

	records, err := s.store.Fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %+v", model.ErrNoTrainingData, query.Bounds)
	}

	if err := s.schema.Validate(records); err != nil {
		return nil, err
	}

	enriched, err := s.enricher.AttachNearest(ctx, records, shopFilter())
	if err != nil {
		return nil, err
	}

	types := make([]string, len(enriched))
	for i, rec := range enriched {
		types[i] = rec.PropertyType
	}
	encoding := NewCategoryEncoding(types)
	codes, err := encoding.Encode(types)
	if err != nil {
		return nil, err
	}

	frame := &TrainingFrame{
		Columns:  trainingColumns,
		X:        make([][]float64, len(enriched)),
		Y:        make([]float64, len(enriched)),
		Encoding: encoding,
	}
	for i, rec := range enriched {
		frame.X[i] = []float64{codes[i], rec.Latitude, rec.Longitude, rec.DistanceToShop}
		frame.Y[i] = float64(rec.Price)
	}
	return frame, nil
}

// split partitions row indices into train and validation sets by the
// configured held-out fraction. The partition is random and
// unstratified.
func (s *PredictionService) split(n int) (train, validation []int) {
	perm := s.rng.Perm(n)
	cut := int(float64(n) * s.cfg.TestSize)
	return perm[cut:], perm[:cut]
}

func (f *TrainingFrame) partition(idx []int) (*mat.Dense, []float64) {
	if len(idx) == 0 {
		return &mat.Dense{}, nil
	}
	x := mat.NewDense(len(idx), len(f.Columns), nil)
	y := make([]float64, len(idx))
	for row, i := range idx {
		x.SetRow(row, f.X[i])
		y[row] = f.Y[i]
	}
	return x, y
}

// makePrediction builds the single-row feature vector for the query
// point, reusing the training run's categorical mapping, and returns
// the model's estimate.
func (s *PredictionService) makePrediction(ctx context.Context, trained *TrainedModel, encoding CategoryEncoding, latitude, longitude float64, propertyType string) (float64, error) {
	code, err := encoding.Code(propertyType)
	if err != nil {
		return 0, err
	}

	point := model.PriceRecord{Latitude: latitude, Longitude: longitude}
	enriched, err := s.enricher.AttachNearest(ctx, []model.PriceRecord{point}, shopFilter())
	if err != nil {
		return 0, err
	}

	features := []float64{code, latitude, longitude, enriched[0].DistanceToShop}
	return trained.Predict(features), nil
}
