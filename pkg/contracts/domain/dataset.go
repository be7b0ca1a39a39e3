package domain

import (
	"time"
)

// Dataset is the working series produced by one upload, along with where it came from.
type Dataset struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Sheet      string     `json:"sheet"`
	UploadedAt time.Time  `json:"uploaded_at"`
	Series     TimeSeries `json:"-"`
}

// DatasetEvent is published whenever the working dataset is replaced.
type DatasetEvent struct {
	Type       string    `json:"type"`
	DatasetID  string    `json:"dataset_id"`
	Source     string    `json:"source"`
	Sheet      string    `json:"sheet"`
	Records    int       `json:"records"`
	FirstMonth string    `json:"first_month,omitempty"`
	LastMonth  string    `json:"last_month,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventDatasetReplaced is the DatasetEvent type emitted on a successful upload.
const EventDatasetReplaced = "dataset:replaced"

// NewDatasetEvent builds the replacement event for a dataset.
func NewDatasetEvent(ds *Dataset) DatasetEvent {
	ev := DatasetEvent{
		Type:      EventDatasetReplaced,
		DatasetID: ds.ID,
		Source:    ds.Source,
		Sheet:     ds.Sheet,
		Records:   ds.Series.Len(),
		Timestamp: ds.UploadedAt,
	}
	if len(ds.Series) > 0 {
		ev.FirstMonth = ds.Series[0].YearMonth()
		ev.LastMonth = ds.Series[len(ds.Series)-1].YearMonth()
	}
	return ev
}
