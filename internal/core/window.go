package core

import (
	"time"

	"price_service/internal/domain/model"
)

// trainingWindowDays is the span of the transaction history used for a
// prediction: 24 weeks either side of the query date.
const trainingWindowDays = 24 * 7

// TrainingWindow builds the record store query for a prediction centred
// on a point and date: a square bounding box of the given half-width in
// degrees and a half-open date interval of 24 weeks either side.
func TrainingWindow(lat, lon float64, date time.Time, bboxHalfWidth float64) model.SpatialQuery {
	return model.SpatialQuery{
		Bounds: model.BoundsAround(lat, lon, bboxHalfWidth),
		Start:  date.AddDate(0, 0, -trainingWindowDays),
		End:    date.AddDate(0, 0, trainingWindowDays),
	}
}
