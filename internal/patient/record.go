package patient

import (
	"time"
)

// EyeDetails holds the prescription values for one eye. The values are
// clinical notation strings, not validated numbers.
type EyeDetails struct {
	Sphere   string `json:"sphere"`
	Cylinder string `json:"cylinder"`
	Axis     string `json:"axis"`
	Add      string `json:"add"`
}

// Record is one patient visit entry. The JSON field names are the
// interchange format shared with export artifacts, so they must not change.
type Record struct {
	ID           string     `json:"id,omitempty"`
	Date         string     `json:"date"`
	PatientName  string     `json:"patientName"`
	MobileNumber string     `json:"mobileNumber"`
	RightEye     EyeDetails `json:"rightEye"`
	LeftEye      EyeDetails `json:"leftEye"`
	FramePrice   float64    `json:"framePrice"`
	GlassPrice   float64    `json:"glassPrice"`
	TotalPrice   float64    `json:"totalPrice"`
	Remarks      string     `json:"remarks"`
	CreatedAt    string     `json:"createdAt,omitempty"`
}

// RecomputeTotal sets TotalPrice to the sum of the two price inputs. Callers
// on the save path must invoke this whenever either input changes.
func (r *Record) RecomputeTotal() {
	r.TotalPrice = r.FramePrice + r.GlassPrice
}

// MissingRequired returns the names of required fields that are empty.
// Enforcing these is the form collaborator's job, so the store never calls
// this; the HTTP edge does.
func (r Record) MissingRequired() []string {
	var missing []string
	if r.PatientName == "" {
		missing = append(missing, "patientName")
	}
	if r.MobileNumber == "" {
		missing = append(missing, "mobileNumber")
	}
	if r.Remarks == "" {
		missing = append(missing, "remarks")
	}
	return missing
}

// EffectiveTimestamp is the instant used for ordering: createdAt when the
// record has been persisted, otherwise the visit date.
func (r Record) EffectiveTimestamp() string {
	if r.CreatedAt != "" {
		return r.CreatedAt
	}
	return r.Date
}

// EffectiveTime parses EffectiveTimestamp for comparisons. Unparseable
// values sort last (zero time).
func (r Record) EffectiveTime() time.Time {
	ts := r.EffectiveTimestamp()
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", ts); err == nil {
		return t
	}
	return time.Time{}
}
