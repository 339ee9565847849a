package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

// paymentNamespace seeds the deterministic ids given to payments that arrive without one.
var paymentNamespace = uuid.MustParse("6f1c7a52-4e0b-4d8e-9a31-5b2f0c9d7e14")

// Alias keys tried for each payment field, in priority order.
var (
	paymentIDKeys          = []string{"id", "paymentId", "payment_id", "reference", "transactionId", "transaction_id", "_id"}
	paymentStudentIDKeys   = []string{"studentId", "student_id"}
	paymentStudentNameKeys = []string{"studentName", "student_name", "name", "payerName"}
	paymentParentNameKeys  = []string{"parentName", "parent_name", "guardianName"}
	paymentParentEmailKeys = []string{"parentEmail", "parent_email", "email"}
	paymentClassKeys       = []string{"className", "class_name", "class", "studentClass"}
	paymentAmountKeys      = []string{"amount", "total", "value"}
	paymentStatusKeys      = []string{"status", "paymentStatus", "payment_status"}
	paymentMethodKeys      = []string{"method", "paymentMethod", "payment_method", "channel"}
	paymentTypeKeys        = []string{"paymentType", "payment_type", "type"}
	paymentSourceKeys      = []string{"source", "origin"}
	paymentCreatedKeys     = []string{"createdAt", "created_at", "date", "timestamp"}
	paymentUpdatedKeys     = []string{"updatedAt", "updated_at", "paidAt", "paid_at"}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizePayment converts an untyped record into an AnalyticsPayment.
// It returns nil only when raw is not an object.
func NormalizePayment(raw interface{}) *models.AnalyticsPayment {
	record, ok := asObject(raw)
	if !ok {
		return nil
	}
	scopes := []map[string]interface{}{record}
	if metadata, ok := asObject(record["metadata"]); ok {
		scopes = append(scopes, metadata)
	}

	payment := &models.AnalyticsPayment{
		StudentID:   lookupString(scopes, paymentStudentIDKeys),
		ParentName:  lookupString(scopes, paymentParentNameKeys),
		ParentEmail: lookupString(scopes, paymentParentEmailKeys),
		ClassName:   lookupString(scopes, paymentClassKeys),
		Amount:      lookupNumber(scopes, paymentAmountKeys),
		Status:      normalizePaymentStatus(lookupString(scopes, paymentStatusKeys)),
		Method:      lookupString(scopes, paymentMethodKeys),
		PaymentType: lookupString(scopes, paymentTypeKeys),
		Source:      lookupString(scopes, paymentSourceKeys),
		CreatedAt:   lookupDate(scopes, paymentCreatedKeys),
		UpdatedAt:   lookupDate(scopes, paymentUpdatedKeys),
	}
	if name := lookupString(scopes, paymentStudentNameKeys); name != nil {
		payment.StudentName = *name
	}
	if id := lookupString(scopes, paymentIDKeys); id != nil {
		payment.ID = *id
	} else {
		payment.ID = fallbackPaymentID(record)
	}
	return payment
}

// NormalizePayments normalises every record, dropping non-objects.
func NormalizePayments(raws []interface{}) []models.AnalyticsPayment {
	payments := make([]models.AnalyticsPayment, 0, len(raws))
	for _, raw := range raws {
		if payment := NormalizePayment(raw); payment != nil {
			payments = append(payments, *payment)
		}
	}
	return payments
}

func normalizePaymentStatus(raw *string) models.PaymentStatus {
	if raw == nil {
		return models.PaymentStatusPending
	}
	switch strings.ToLower(*raw) {
	case "completed", "paid", "success", "successful":
		return models.PaymentStatusCompleted
	case "failed", "declined", "reversed":
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

func asObject(raw interface{}) (map[string]interface{}, bool) {
	switch v := raw.(type) {
	case map[string]interface{}:
		return v, v != nil
	case json.RawMessage:
		var decoded map[string]interface{}
		if err := json.Unmarshal(v, &decoded); err != nil || decoded == nil {
			return nil, false
		}
		return decoded, true
	default:
		return nil, false
	}
}

// lookup returns the first value across scopes then keys that convert accepts.
// Present values that cannot be converted, such as nested objects, fall through to the next alias.
func lookup[T any](scopes []map[string]interface{}, keys []string, convert func(interface{}) (T, bool)) (T, bool) {
	for _, scope := range scopes {
		for _, key := range keys {
			value, ok := scope[key]
			if !ok || value == nil {
				continue
			}
			if converted, ok := convert(value); ok {
				return converted, true
			}
		}
	}
	var zero T
	return zero, false
}

func lookupString(scopes []map[string]interface{}, keys []string) *string {
	s, ok := lookup(scopes, keys, asString)
	if !ok {
		return nil
	}
	return &s
}

func lookupNumber(scopes []map[string]interface{}, keys []string) float64 {
	n, _ := lookup(scopes, keys, asNumber)
	return n
}

func lookupDate(scopes []map[string]interface{}, keys []string) *time.Time {
	t, ok := lookup(scopes, keys, asDate)
	if !ok {
		return nil
	}
	return &t
}

func asString(value interface{}) (string, bool) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func asNumber(value interface{}) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(stripNonNumeric(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func asDate(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func fallbackPaymentID(record map[string]interface{}) string {
	// encoding/json sorts map keys, so equal records hash to equal ids.
	payload, err := json.Marshal(record)
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(paymentNamespace, payload).String()
}
