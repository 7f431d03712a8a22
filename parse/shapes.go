package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

type ShapeCSV struct {
	ShapeID      string  `csv:"shape_id"`
	Lat          float64 `csv:"shape_pt_lat"`
	Lon          float64 `csv:"shape_pt_lon"`
	Sequence     uint32  `csv:"shape_pt_sequence"`
	DistTraveled float64 `csv:"shape_dist_traveled"`
}

// Returns the set of shape IDs seen.
func ParseShapes(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	type shapeSeq struct {
		shapeID string
		seq     uint32
	}

	shapes := map[string]bool{}
	seen := map[shapeSeq]bool{}

	i := -1
	err := gocsv.UnmarshalToCallbackWithError(data, func(s *ShapeCSV) error {
		i += 1
		if s.ShapeID == "" {
			return fmt.Errorf("empty shape_id (row %d)", i+1)
		}
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			return fmt.Errorf("shape point out of range (row %d)", i+1)
		}

		key := shapeSeq{s.ShapeID, s.Sequence}
		if seen[key] {
			return fmt.Errorf("duplicate shape_pt_sequence %d for shape_id '%s'", s.Sequence, s.ShapeID)
		}
		seen[key] = true
		shapes[s.ShapeID] = true

		err := writer.WriteShapePoint(&model.ShapePoint{
			ShapeID:      s.ShapeID,
			Lat:          s.Lat,
			Lon:          s.Lon,
			Sequence:     s.Sequence,
			DistTraveled: s.DistTraveled,
		})
		if err != nil {
			return errors.Wrapf(err, "writing shape point (row %d)", i+1)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling shapes csv")
	}

	return shapes, nil
}
