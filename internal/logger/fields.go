package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across packages.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldLeadID    = "lead_id"
	FieldPartnerID = "partner_id"
	FieldVariant   = "scoring_variant"
)

// StringField is a key/value pair that is dropped when either side is blank.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the pairs into zap fields, skipping blank keys and values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// WithModel tags logger with the assistant provider and model.
func WithModel(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}

// WithLead tags logger with a lead ID. Non-positive IDs are not attached.
func WithLead(logger *zap.Logger, leadID int) *zap.Logger {
	if leadID <= 0 {
		return WithFields(logger)
	}
	return WithFields(logger, zap.Int(FieldLeadID, leadID))
}

// Partner returns the partner ID field.
func Partner(id int) zap.Field { return zap.Int(FieldPartnerID, id) }

// Variant returns the scoring variant field.
func Variant(v string) zap.Field { return zap.String(FieldVariant, v) }
