// Package outreach records contact attempts toward discovered businesses.
package outreach

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
)

// Logger records outreach attempts.
type Logger struct {
	store store.Store
}

// NewLogger creates an outreach logger.
func NewLogger(st store.Store) *Logger {
	return &Logger{store: st}
}

// LogAttempt records one contact attempt. Persisting the attempt advances
// the business to contacted as a store side effect.
func (l *Logger) LogAttempt(ctx context.Context, businessID string, method model.OutreachMethod, notes string) (*model.OutreachLog, error) {
	if !method.Valid() {
		return nil, eris.Errorf("outreach: invalid method %q", method)
	}

	if _, err := l.store.GetBusiness(ctx, businessID); err != nil {
		return nil, eris.Wrapf(err, "outreach: load business %s", businessID)
	}

	entry, err := l.store.InsertOutreach(ctx, &model.OutreachLog{
		BusinessID: businessID,
		Method:     method,
		Notes:      notes,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "outreach: record attempt for %s", businessID)
	}

	zap.L().Info("outreach attempt logged",
		zap.String("business_id", businessID),
		zap.String("method", string(method)),
	)
	return entry, nil
}
