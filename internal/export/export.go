// Package export writes the inventory and finding tables to S3 as Neptune bulk-load CSV files.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasnim.dev/aria-idc/internal/aws/s3"
	"tasnim.dev/aria-idc/internal/store"
	"tasnim.dev/aria-idc/internal/tables"
	"tasnim.dev/aria-idc/internal/utils"
)

const (
	ContentType   = "text/csv"
	listSeparator = ";"
)

// ObjectStore is the subset of the S3 wrapper the exporter writes through.
type ObjectStore interface {
	PutObject(ctx context.Context, obj s3.Object) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Trigger is the invocation payload.
type Trigger struct {
	S3Bucket string `json:"s3bucket" validate:"required"`
}

// ParseTrigger decodes payload and falls back to bucket when it names none.
func ParseTrigger(payload []byte, bucket string) (Trigger, error) {
	var tr Trigger
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &tr); err != nil {
			return Trigger{}, fmt.Errorf("decoding export trigger: %w", err)
		}
	}
	if tr.S3Bucket == "" {
		tr.S3Bucket = bucket
	}
	if err := validator.New().Struct(tr); err != nil {
		return Trigger{}, fmt.Errorf("export trigger: %w", err)
	}
	return tr, nil
}

// Report lists the object keys handled by one export.
type Report struct {
	Written []string
	// Empty holds files whose table had no rows; the old object was still removed.
	Empty []string
	// Skipped holds files not touched because their table was empty.
	Skipped []string
	Rows    int
}

type Exporter struct {
	tables   *tables.Set
	objects  ObjectStore
	mappings []Mapping
	newID    func() string
	log      *zap.Logger
}

func NewExporter(set *tables.Set, objects ObjectStore, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{
		tables:   set,
		objects:  objects,
		mappings: DefaultMappings(),
		newID:    uuid.NewString,
		log:      log,
	}
}

// WithIDs replaces the edge id generator.
func (e *Exporter) WithIDs(newID func() string) *Exporter {
	e.newID = newID
	return e
}

// Export writes every mapping to bucket in order and stops at the first failure.
// Files written before the failure are left in place.
func (e *Exporter) Export(ctx context.Context, bucket string) (Report, error) {
	var report Report
	for _, m := range e.mappings {
		rows, skipped, err := e.exportOne(ctx, bucket, m)
		if err != nil {
			return report, fmt.Errorf("exporting %s: %w", m.Key, err)
		}
		switch {
		case skipped:
			report.Skipped = append(report.Skipped, m.Key)
		case rows == 0:
			report.Empty = append(report.Empty, m.Key)
		default:
			report.Written = append(report.Written, m.Key)
			report.Rows += rows
		}
	}
	e.log.Info("export finished",
		zap.String("bucket", bucket),
		zap.Int("written", len(report.Written)),
		zap.Int("empty", len(report.Empty)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("rows", report.Rows))
	return report, nil
}

func (e *Exporter) exportOne(ctx context.Context, bucket string, m Mapping) (int, bool, error) {
	table := e.tables.Get(m.Table)
	if m.RequireItems {
		has, err := table.HasItems(ctx)
		if err != nil {
			return 0, false, err
		}
		if !has {
			e.log.Debug("table empty, skipping", zap.String("table", table.Schema().Name), zap.String("key", m.Key))
			return 0, true, nil
		}
	}

	if err := e.objects.DeleteObject(ctx, bucket, m.Key); err != nil {
		return 0, false, err
	}
	items, err := table.Scan(ctx)
	if err != nil {
		return 0, false, err
	}
	if len(items) == 0 {
		return 0, false, nil
	}
	if len(m.DedupFields) > 0 {
		items = Dedup(items, m.DedupFields)
	}
	body, err := Render(items, m, e.newID)
	if err != nil {
		return 0, false, err
	}
	err = e.objects.PutObject(ctx, s3.Object{Bucket: bucket, Key: m.Key, Body: body, ContentType: ContentType})
	if err != nil {
		return 0, false, err
	}
	e.log.Info("exported", zap.String("table", table.Schema().Name), zap.String("key", m.Key), zap.Int("rows", len(items)))
	return len(items), false, nil
}

// Dedup keeps the first item of each combination of fields, preserving order.
func Dedup(items []store.Item, fields []string) []store.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]store.Item, 0, len(items))
	for _, item := range items {
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = Cell(item[f])
		}
		k := strings.Join(parts, "\x00")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Render writes the header row and one row per item.
func Render(items []store.Item, m Mapping, newID func() string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		header[i] = c.Header
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(m.Columns))
	for _, item := range items {
		for i, c := range m.Columns {
			row[i] = column(item, c.Source, m, newID)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func column(item store.Item, source string, m Mapping, newID func() string) string {
	if v, ok := item[source]; ok {
		return Cell(v)
	}
	switch {
	case source == SourceUniqueID && m.GenerateID:
		return newID()
	case source == SourceLabel && m.Label != "":
		return m.Label
	}
	return ""
}

// Cell formats an item value for CSV. Lists are joined with ";".
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return utils.Number(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, listSeparator)
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = Cell(p)
		}
		return strings.Join(parts, listSeparator)
	default:
		return fmt.Sprint(v)
	}
}
