package events

import (
	"encoding/base64"
	"math"
	"net/url"
	"strings"
)

// ValidateCreate normalizes a raw, untrusted payload into a canonical
// CreateRequest. Checks run field by field and stop at the first violated
// constraint. The payload is the decoded JSON body as received over the
// wire, so numbers arrive as float64.
func ValidateCreate(payload map[string]any) (*CreateRequest, error) {
	req := &CreateRequest{
		Location: "Unknown",
		Severity: "medium",
		Status:   StatusPending,
		Mode:     ModeLive,
	}

	// eventType
	et, ok, err := stringField(payload, "eventType")
	if err != nil {
		return nil, err
	}
	if !ok || et == "" {
		return nil, invalid("eventType", "\"eventType\" is required")
	}
	if !eventTypes[et] {
		return nil, invalid("eventType", "\"eventType\" must be one of [fire, fall, fight]")
	}
	req.EventType = et

	// timestamp
	ts, ok, err := stringField(payload, "timestamp")
	if err != nil || !ok || ts == "" {
		return nil, invalid("timestamp", "\"timestamp\" is required and must be an ISO-8601 date")
	}
	parsed, perr := ParseTime(ts)
	if perr != nil {
		return nil, invalid("timestamp", "\"timestamp\" must be a valid ISO-8601 date")
	}
	req.Timestamp = parsed

	// cameraId
	cam, ok, err := stringField(payload, "cameraId")
	if err != nil {
		return nil, err
	}
	if !ok || cam == "" {
		return nil, invalid("cameraId", "\"cameraId\" is required")
	}
	req.CameraID = cam

	// priority / priorityLabel. Label takes precedence: contradictory
	// signals are never accepted silently.
	label, hasLabel, err := stringField(payload, "priorityLabel")
	if err != nil {
		return nil, err
	}
	if hasLabel {
		p, ok := PriorityForLabel[label]
		if !ok {
			return nil, invalid("priorityLabel", "\"priorityLabel\" must be one of [Low, Medium, High]")
		}
		req.Priority = p
		req.PriorityLabel = label
	}
	if raw, present := payload["priority"]; present {
		p, ok := intValue(raw)
		if !ok || p < 1 || p > 3 {
			if !hasLabel {
				return nil, invalid("priority", "\"priority\" must be an integer between 1 and 3")
			}
		} else if !hasLabel {
			req.Priority = p
			req.PriorityLabel = LabelForPriority[p]
		}
	}
	if req.Priority == 0 {
		return nil, invalid("priority", "one of \"priority\" or \"priorityLabel\" is required")
	}

	// confidence
	if raw, present := payload["confidence"]; present && raw != nil {
		c, ok := floatValue(raw)
		if !ok || c < 0 || c > 1 {
			return nil, invalid("confidence", "\"confidence\" must be a number between 0 and 1")
		}
		req.Confidence = &c
	}

	// location
	if loc, ok, err := stringField(payload, "location"); err != nil {
		return nil, err
	} else if ok && loc != "" {
		req.Location = loc
	}

	// severity
	if sev, ok, err := stringField(payload, "severity"); err != nil {
		return nil, err
	} else if ok && sev != "" {
		if !severities[sev] {
			return nil, invalid("severity", "\"severity\" must be one of [low, medium, high]")
		}
		req.Severity = sev
	}

	// status
	if st, ok, err := stringField(payload, "status"); err != nil {
		return nil, err
	} else if ok && st != "" {
		if !statuses[st] {
			return nil, invalid("status", "\"status\" must be one of [pending, dispatched, resolved]")
		}
		req.Status = st
	}

	// notes, falling back to an embedded description
	notes, hasNotes, err := stringField(payload, "notes")
	if err != nil {
		return nil, err
	}
	if !hasNotes || notes == "" {
		notes = embeddedDescription(payload)
	}
	if len(notes) > MaxNotesLength {
		return nil, invalid("notes", "\"notes\" must be at most %d characters", MaxNotesLength)
	}
	req.Notes = notes

	// mode / frameIndex (offline replay)
	if mode, ok, err := stringField(payload, "mode"); err != nil {
		return nil, err
	} else if ok && mode != "" {
		if !modes[mode] {
			return nil, invalid("mode", "\"mode\" must be one of [live, offline]")
		}
		req.Mode = mode
	}
	if raw, present := payload["frameIndex"]; present && raw != nil {
		fi, ok := intValue(raw)
		if !ok {
			return nil, invalid("frameIndex", "\"frameIndex\" must be an integer")
		}
		req.FrameIndex = &fi
	}

	// snapshotUrl: pre-resolved URL. Empty string normalizes to null, never
	// persisted as "".
	if su, ok, err := stringField(payload, "snapshotUrl"); err != nil {
		return nil, err
	} else if ok && su != "" {
		u, uerr := url.Parse(su)
		if uerr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, invalid("snapshotUrl", "\"snapshotUrl\" must be a well-formed URL")
		}
		req.SnapshotURL = &su
	}

	// Inline image data, either key the ML clients have used.
	for _, key := range []string{"base64Image", "snapshotData"} {
		img, ok, err := stringField(payload, key)
		if err != nil {
			return nil, err
		}
		if ok && img != "" {
			if _, _, derr := ParseDataURI(img); derr != nil {
				return nil, invalid(key, "%q must be a well-formed base64 data URI", key)
			}
			req.SnapshotData = img
			break
		}
	}

	return req, nil
}

// ParseDataURI splits and verifies a data:<mime>;base64,<payload> URI.
func ParseDataURI(s string) (mime string, raw []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, invalid("snapshotData", "missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, invalid("snapshotData", "not a base64 data URI")
	}
	mime = strings.TrimSuffix(meta, ";base64")
	if mime == "" {
		return "", nil, invalid("snapshotData", "missing media type")
	}
	raw, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders strip padding.
		raw, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return "", nil, invalid("snapshotData", "invalid base64 payload")
	}
	return mime, raw, nil
}

func embeddedDescription(payload map[string]any) string {
	details, ok := payload["eventDetails"].(map[string]any)
	if !ok {
		return ""
	}
	desc, _ := details["description"].(string)
	return desc
}

// stringField returns (value, present, error). A present non-string value
// fails validation; nil counts as absent.
func stringField(payload map[string]any, key string) (string, bool, error) {
	raw, present := payload[key]
	if !present || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, invalid(key, "%q must be a string", key)
	}
	return s, true, nil
}

func floatValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func intValue(raw any) (int, bool) {
	f, ok := floatValue(raw)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
