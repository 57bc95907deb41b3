package findings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/model"
	"tasnim.dev/aria-idc/internal/store"
	"tasnim.dev/aria-idc/internal/tables"
	"tasnim.dev/aria-idc/internal/utils"
)

// ErrMalformed marks an event missing a field required for its finding type.
var ErrMalformed = errors.New("malformed finding event")

const actionSeparator = ", "

type Ingestor struct {
	internal store.Table
	unused   store.Table
	terminal TerminalStatuses
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewIngestor(set *tables.Set, terminal TerminalStatuses, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	if terminal == nil {
		terminal = DefaultTerminalStatuses()
	}
	return &Ingestor{
		internal: set.Get(tables.InternalAAFindings),
		unused:   set.Get(tables.UnusedAAFindings),
		terminal: terminal,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for ProcessedAt.
func (i *Ingestor) WithClock(now func() time.Time) *Ingestor {
	i.now = now
	return i
}

// Ingest upserts an open finding or deletes a closed one. Unknown finding types are ignored.
func (i *Ingestor) Ingest(ctx context.Context, ev Event) (Outcome, error) {
	d := ev.Detail
	ft, ok := ParseFindingType(d.FindingType)
	if !ok {
		i.log.Info("ignoring finding type", zap.String("finding_type", d.FindingType))
		return OutcomeIgnored, nil
	}

	table, id := i.internal, d.ID
	if ft.Kind() == KindUnused {
		table, id = i.unused, d.FindingID
	}
	if id == "" {
		return OutcomeIgnored, fmt.Errorf("%w: %s finding without id", ErrMalformed, ft)
	}
	log := i.log.With(zap.String("finding_id", id), zap.Stringer("finding_type", ft), zap.String("status", d.Status))

	if i.terminal.IsTerminal(ft, d.Status) {
		existed, err := table.DeleteIfExists(ctx, store.Key{"FindingId": id})
		if err != nil {
			return OutcomeIgnored, fmt.Errorf("deleting finding %s: %w", id, err)
		}
		if !existed {
			log.Info("finding already absent")
			return OutcomeAlreadyAbsent, nil
		}
		log.Info("finding deleted")
		return OutcomeDeleted, nil
	}

	var rec any
	var err error
	switch ft.Kind() {
	case KindInternal:
		rec, err = i.internalRecord(ft, d)
	case KindUnused:
		rec, err = i.unusedRecord(ft, d)
	}
	if err != nil {
		return OutcomeIgnored, err
	}

	item, err := model.ToItem(rec)
	if err != nil {
		return OutcomeIgnored, err
	}
	if err := table.Put(ctx, item); err != nil {
		return OutcomeIgnored, fmt.Errorf("storing finding %s: %w", id, err)
	}
	log.Info("finding upserted")
	return OutcomeUpserted, nil
}

func (i *Ingestor) internalRecord(ft FindingType, d Detail) (model.InternalAccessFinding, error) {
	principal := ""
	if d.Principal != nil {
		principal = d.Principal.AWS
	}
	rec := model.InternalAccessFinding{
		FindingID:                            d.ID,
		FindingType:                          ft.String(),
		Principal:                            principal,
		PrincipalName:                        utils.ShortName(principal),
		PrincipalOwnerAccount:                orNA(d.PrincipalOwnerAccount),
		PrincipalType:                        orNA(d.PrincipalType),
		ResourceType:                         orNA(d.ResourceType),
		ResourceARN:                          orNA(d.Resource),
		ResourceAccount:                      orNA(d.AccountID),
		ResourceControlPolicyRestrictionType: orNA(d.ResourceControlPolicyRestrictionType),
		ServiceControlPolicyRestrictionType:  orNA(d.ServiceControlPolicyRestrictionType),
		AccessType:                           orNA(d.AccessType),
		Action:                               strings.Join(d.Action, actionSeparator),
		Status:                               d.Status,
		CreatedAt:                            d.CreatedAt,
		UpdatedAt:                            d.UpdatedAt,
		ProcessedAt:                          utils.Timestamp(i.now()),
	}
	if err := i.validate.Struct(rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

func (i *Ingestor) unusedRecord(ft FindingType, d Detail) (model.UnusedAccessFinding, error) {
	if d.NumberOfUnusedServices == nil || d.NumberOfUnusedActions == nil {
		return model.UnusedAccessFinding{}, fmt.Errorf("%w: %s finding %s without unused counters", ErrMalformed, ft, d.FindingID)
	}
	rec := model.UnusedAccessFinding{
		FindingID:              d.FindingID,
		AccessType:             "UNUSED",
		FindingType:            ft.String(),
		Principal:              d.Resource,
		PrincipalName:          utils.ShortName(d.Resource),
		PrincipalType:          orNA(d.ResourceType),
		PrincipalOwnerAccount:  orNA(d.AccountID),
		ResourceARN:            orNA(d.Resource),
		ResourceType:           orNA(d.ResourceType),
		ResourceAccount:        orNA(d.AccountID),
		Status:                 d.Status,
		NumberOfUnusedServices: *d.NumberOfUnusedServices,
		NumberOfUnusedActions:  *d.NumberOfUnusedActions,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
		AnalyzedAt:             d.AnalyzedAt,
		ProcessedAt:            utils.Timestamp(i.now()),
	}
	if err := i.validate.Struct(rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

func orNA(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}
