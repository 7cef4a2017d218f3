// Package archive persists a day's route analysis to R2/S3 as Parquet,
// the same idempotent head-then-put pattern the upstream worker uses
// to archive bus positions, repointed at routing output instead.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"github.com/portomove/wcoroute/internal/model"
)

var log = logrus.WithField("component", "archive")

// ParquetStop is the columnar row schema for one archived collection
// stop, the routing-domain counterpart of the upstream ParquetPosition.
type ParquetStop struct {
	ScheduleID      string  `parquet:"schedule_id"`
	CollectionDay   int32   `parquet:"collection_day"`
	VehicleID       string  `parquet:"vehicle_id"`
	TripNumber      int32   `parquet:"trip_number"`
	LocationID      string  `parquet:"location_id"`
	Name            string  `parquet:"name"`
	Lat             float64 `parquet:"lat"`
	Lon             float64 `parquet:"lon"`
	WCOAmount       float64 `parquet:"wco_amount"`
	CumulativeLoad  float64 `parquet:"cumulative_load"`
	SequenceNumber  int32   `parquet:"sequence_number"`
	CollectionTimeS float64 `parquet:"collection_time_sec"`
	TravelTimeS     float64 `parquet:"travel_time_sec"`
}

// NewR2Client builds an S3-compatible client against R2 from
// environment configuration, returning a nil client when R2 isn't
// configured — callers treat that as "archival disabled", not an
// error.
func NewR2Client() (*s3.Client, string) {
	endpoint := os.Getenv("R2_ENDPOINT")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	secretAccessKey := os.Getenv("R2_SECRET_ACCESS_KEY")

	if endpoint == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, ""
	}

	bucket := os.Getenv("R2_BUCKET")
	if bucket == "" {
		bucket = "porto-move"
	}

	client := s3.New(s3.Options{
		BaseEndpoint: &endpoint,
		Region:       "auto",
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
	})

	return client, bucket
}

// rowsFromResult flattens a day's RouteAnalysisResult into the Parquet
// row shape, one row per stop across every trip and vehicle.
func rowsFromResult(result model.RouteAnalysisResult) []ParquetStop {
	var rows []ParquetStop
	for _, trip := range result.Trips {
		for _, vr := range trip.VehicleRoutes {
			for _, stop := range vr.Stops {
				rows = append(rows, ParquetStop{
					ScheduleID:      result.ScheduleID,
					CollectionDay:   int32(result.CollectionDay),
					VehicleID:       vr.VehicleID,
					TripNumber:      int32(stop.TripNumber),
					LocationID:      stop.LocationID,
					Name:            stop.Name,
					Lat:             stop.Coordinates.Lat,
					Lon:             stop.Coordinates.Lon,
					WCOAmount:       stop.WCOAmount,
					CumulativeLoad:  stop.CumulativeLoad,
					SequenceNumber:  int32(stop.SequenceNumber),
					CollectionTimeS: stop.CollectionTimeSec,
					TravelTimeS:     stop.TravelTimeSec,
				})
			}
		}
	}
	return rows
}

// ArchiveRouteAnalysis writes one day's RouteAnalysisResult to R2 as
// Parquet under key "routes/<schedule_id>.parquet", skipping the
// upload if that key already exists.
func ArchiveRouteAnalysis(ctx context.Context, client *s3.Client, bucket string, result model.RouteAnalysisResult) error {
	if client == nil {
		log.Debug("R2 not configured, skipping archive")
		return nil
	}

	key := fmt.Sprintf("routes/%s.parquet", result.ScheduleID)

	if _, err := client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key}); err == nil {
		log.WithField("key", key).Info("already archived, skipping")
		return nil
	}

	rows := rowsFromResult(result)
	if len(rows) == 0 {
		log.WithField("schedule_id", result.ScheduleID).Info("no stops to archive")
		return nil
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[ParquetStop](&buf)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}

	body := buf.Bytes()
	contentType := "application/vnd.apache.parquet"
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
		Metadata: map[string]string{
			"rows":        fmt.Sprintf("%d", len(rows)),
			"schedule_id": result.ScheduleID,
		},
	})
	if err != nil {
		return fmt.Errorf("upload to R2: %w", err)
	}

	log.WithField("key", key).WithField("rows", len(rows)).Info("archived route analysis")
	return nil
}
