package domain

// DetectedCard is a candidate card region identified by the detection service
// within an uploaded image. IDs are unique across the whole result set of a
// session; selection tracks them in a flat set.
type DetectedCard struct {
	ID              string         `json:"id"`
	Confidence      float64        `json:"confidence"`
	CroppedImageURL string         `json:"cropped_image_url"`
	Metadata        map[string]any `json:"metadata"`
}

// SourceImage carries the raw bytes of an uploaded image handed to the
// detection service.
type SourceImage struct {
	ID   string
	MIME string
	Data []byte
}

// DetectionResult is the per-input-image record produced by the detection
// service. Result order is defined by the service, not by the input order;
// SourceImageID is the only link back to the uploaded image.
type DetectionResult struct {
	SourceImageID    string         `json:"source_image_id"`
	DetectedCards    []DetectedCard `json:"detected_cards"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	TotalDetected    int            `json:"total_detected"`
}

// AllDetectedIDs flattens every detected-card id across the given results,
// preserving result-list order and per-result detection order.
func AllDetectedIDs(results []DetectionResult) []string {
	var ids []string
	for _, result := range results {
		for _, card := range result.DetectedCards {
			ids = append(ids, card.ID)
		}
	}
	return ids
}
