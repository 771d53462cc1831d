package ctxutil

import "context"

type traceDataKey struct{}

// TraceData correlates one inbound request across logs and upstream calls.
// TitleMemoryID is set when the route addresses a single record.
type TraceData struct {
	TraceID       string
	RequestID     string
	TitleMemoryID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the non-empty correlation ids as logger key/value pairs.
func (td *TraceData) LogFields() []interface{} {
	if td == nil {
		return nil
	}
	var out []interface{}
	if td.TraceID != "" {
		out = append(out, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		out = append(out, "request_id", td.RequestID)
	}
	if td.TitleMemoryID != "" {
		out = append(out, "title_memory_id", td.TitleMemoryID)
	}
	return out
}
